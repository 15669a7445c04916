package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/redis/go-redis/v9"
)

const sanctionKeyPrefix = "trustgate:sanctions:"

// RedisSanctionStore shares the active-sanctions table across instances.
// Each wallet's sanctions are stored as a JSON array under one key so a
// bucket is always replaced wholesale.
type RedisSanctionStore struct {
	client *redis.Client
}

func NewRedisSanctionStore(cfg config.RedisConfig) (*RedisSanctionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisSanctionStore{client: client}, nil
}

func (s *RedisSanctionStore) Append(ctx context.Context, wallet string, sanction model.Sanction) error {
	list, err := s.load(ctx, wallet)
	if err != nil {
		return err
	}
	return s.save(ctx, wallet, append(list, sanction))
}

func (s *RedisSanctionStore) List(ctx context.Context, wallet string) ([]model.Sanction, error) {
	return s.load(ctx, wallet)
}

func (s *RedisSanctionStore) Remove(ctx context.Context, wallet, id string) (*model.Sanction, error) {
	list, err := s.load(ctx, wallet)
	if err != nil {
		return nil, err
	}
	for i, sanction := range list {
		if sanction.ID == id {
			if err := s.save(ctx, wallet, append(list[:i:i], list[i+1:]...)); err != nil {
				return nil, err
			}
			return &sanction, nil
		}
	}
	return nil, nil
}

func (s *RedisSanctionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := s.scan(ctx, func(key, wallet string, list []model.Sanction) error {
		kept := list[:0:0]
		for _, sanction := range list {
			if sanction.ActiveAt(now) {
				kept = append(kept, sanction)
			}
		}
		if len(kept) == len(list) {
			return nil
		}
		removed += len(list) - len(kept)
		return s.save(ctx, wallet, kept)
	})
	return removed, err
}

func (s *RedisSanctionStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	count := 0
	err := s.scan(ctx, func(key, wallet string, list []model.Sanction) error {
		for _, sanction := range list {
			if sanction.ActiveAt(now) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *RedisSanctionStore) load(ctx context.Context, wallet string) ([]model.Sanction, error) {
	raw, err := s.client.Get(ctx, sanctionKeyPrefix+wallet).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []model.Sanction
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *RedisSanctionStore) save(ctx context.Context, wallet string, list []model.Sanction) error {
	key := sanctionKeyPrefix + wallet
	if len(list) == 0 {
		return s.client.Del(ctx, key).Err()
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, 0).Err()
}

func (s *RedisSanctionStore) scan(ctx context.Context, fn func(key, wallet string, list []model.Sanction) error) error {
	iter := s.client.Scan(ctx, 0, sanctionKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		wallet := key[len(sanctionKeyPrefix):]
		list, err := s.load(ctx, wallet)
		if err != nil {
			return err
		}
		if err := fn(key, wallet, list); err != nil {
			return err
		}
	}
	return iter.Err()
}
