package repository

import (
	"context"
	"sync"

	"github.com/TrustArcade/trustgate/internal/model"
)

// MemoryDetectionStore is a bounded ring of detection entries, oldest
// evicted on insert.
type MemoryDetectionStore struct {
	mu        sync.Mutex
	maxSize   int
	entries   []model.DetectionLogEntry
	nextIndex int
}

func NewMemoryDetectionStore(maxSize int) *MemoryDetectionStore {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryDetectionStore{
		maxSize: maxSize,
		entries: make([]model.DetectionLogEntry, 0, maxSize),
	}
}

func (s *MemoryDetectionStore) Append(ctx context.Context, entry model.DetectionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) < s.maxSize {
		s.entries = append(s.entries, entry)
		return nil
	}
	s.entries[s.nextIndex] = entry
	s.nextIndex = (s.nextIndex + 1) % s.maxSize
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *MemoryDetectionStore) Recent(ctx context.Context, limit int) ([]model.DetectionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.entries)
	if limit <= 0 || limit > total {
		limit = total
	}
	results := make([]model.DetectionLogEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.nextIndex + total - 1 - i) % total
		results = append(results, s.entries[idx])
	}
	return results, nil
}
