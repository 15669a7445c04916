package repository

import (
	"context"
	"sync"

	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/pkg/stats"
)

// MemoryBaselineStore keeps one bounded rolling score population per game
// type. The cap is enforced on every insert, oldest scores evicted first.
type MemoryBaselineStore struct {
	mu        sync.RWMutex
	maxScores int
	baselines map[string]*model.GameBaseline
}

func NewMemoryBaselineStore(maxScores int) *MemoryBaselineStore {
	if maxScores <= 0 {
		maxScores = 10000
	}
	return &MemoryBaselineStore{
		maxScores: maxScores,
		baselines: make(map[string]*model.GameBaseline),
	}
}

func (s *MemoryBaselineStore) Get(ctx context.Context, gameType string) (*model.GameBaseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.baselines[gameType]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.Scores = append([]float64(nil), b.Scores...)
	return &cp, nil
}

func (s *MemoryBaselineStore) Add(ctx context.Context, gameType string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baselines[gameType]
	if !ok {
		b = &model.GameBaseline{GameType: gameType}
		s.baselines[gameType] = b
	}
	b.Scores = append(b.Scores, score)
	if len(b.Scores) > s.maxScores {
		b.Scores = b.Scores[len(b.Scores)-s.maxScores:]
	}
	b.AvgScore = stats.Mean(b.Scores)
	return nil
}
