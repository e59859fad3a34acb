package memory

import (
	"context"
	"sync"

	"quiz-arena-service/internal/domain"
)

// ProgressStore keeps player statistics for the lifetime of the process.
type ProgressStore struct {
	mu       sync.RWMutex
	progress map[string]domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{progress: make(map[string]domain.Progress)}
}

func (s *ProgressStore) RecordGame(_ context.Context, result domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range result.Players {
		key := domain.ProgressKey(p.Name)
		if key == "" {
			continue
		}
		entry := s.progress[key]
		entry.Name = key
		entry.Apply(result.Mode, p, result.FinishedAt)
		s.progress[key] = entry
	}
	return nil
}

// GetProgress returns zero counters for unknown names.
func (s *ProgressStore) GetProgress(_ context.Context, name string) (domain.Progress, error) {
	key := domain.ProgressKey(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.progress[key]
	if !ok {
		return domain.Progress{Name: key}, nil
	}
	return entry, nil
}
