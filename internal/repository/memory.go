package repository

import (
	"context"
	"sync"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
)

// MemoryProfileStore keeps profiles in a mutex-guarded map. It is the default
// backend and the reference for the store semantics.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*model.PlayerProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*model.PlayerProfile)}
}

func (s *MemoryProfileStore) Get(ctx context.Context, wallet string) (*model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[wallet].Clone(), nil
}

func (s *MemoryProfileStore) Upsert(ctx context.Context, profile *model.PlayerProfile) error {
	if profile == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Wallet] = profile.Clone()
	return nil
}

func (s *MemoryProfileStore) Delete(ctx context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, wallet)
	return nil
}

func (s *MemoryProfileStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

func (s *MemoryProfileStore) PruneBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted []string
	for wallet, p := range s.profiles {
		if p.LastSeen.Before(cutoff) {
			delete(s.profiles, wallet)
			evicted = append(evicted, wallet)
		}
	}
	return evicted, nil
}

// MemoryFingerprintStore keeps fingerprints in a mutex-guarded map.
type MemoryFingerprintStore struct {
	mu     sync.RWMutex
	prints map[string]*model.BehaviorFingerprint
}

func NewMemoryFingerprintStore() *MemoryFingerprintStore {
	return &MemoryFingerprintStore{prints: make(map[string]*model.BehaviorFingerprint)}
}

func (s *MemoryFingerprintStore) Get(ctx context.Context, wallet string) (*model.BehaviorFingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prints[wallet].Clone(), nil
}

func (s *MemoryFingerprintStore) Upsert(ctx context.Context, fp *model.BehaviorFingerprint) error {
	if fp == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prints[fp.Wallet] = fp.Clone()
	return nil
}

func (s *MemoryFingerprintStore) Delete(ctx context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prints, wallet)
	return nil
}
