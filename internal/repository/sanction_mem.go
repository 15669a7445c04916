package repository

import (
	"context"
	"sync"
	"time"

	"github.com/TrustArcade/trustgate/internal/model"
)

// MemorySanctionStore is the in-process active-sanctions table.
type MemorySanctionStore struct {
	mu     sync.RWMutex
	active map[string][]model.Sanction
}

func NewMemorySanctionStore() *MemorySanctionStore {
	return &MemorySanctionStore{active: make(map[string][]model.Sanction)}
}

func (s *MemorySanctionStore) Append(ctx context.Context, wallet string, sanction model.Sanction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[wallet] = append(s.active[wallet], sanction)
	return nil
}

func (s *MemorySanctionStore) List(ctx context.Context, wallet string) ([]model.Sanction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Sanction(nil), s.active[wallet]...), nil
}

func (s *MemorySanctionStore) Remove(ctx context.Context, wallet, id string) (*model.Sanction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.active[wallet]
	for i, sanction := range list {
		if sanction.ID == id {
			s.active[wallet] = append(list[:i:i], list[i+1:]...)
			if len(s.active[wallet]) == 0 {
				delete(s.active, wallet)
			}
			return &sanction, nil
		}
	}
	return nil, nil
}

// Sweep rebuilds each wallet's bucket without its expired entries. Buckets are
// replaced wholesale so readers never see a partially filtered list.
func (s *MemorySanctionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for wallet, list := range s.active {
		kept := list[:0:0]
		for _, sanction := range list {
			if sanction.ActiveAt(now) {
				kept = append(kept, sanction)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(s.active, wallet)
		} else {
			s.active[wallet] = kept
		}
	}
	return removed, nil
}

func (s *MemorySanctionStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, list := range s.active {
		for _, sanction := range list {
			if sanction.ActiveAt(now) {
				count++
			}
		}
	}
	return count, nil
}
