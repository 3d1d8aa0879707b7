package experiments

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu   sync.RWMutex
	rows map[string]Experiment
}

// NewMemoryStore returns an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{rows: make(map[string]Experiment)}
}

func (s *memoryStore) Insert(ctx context.Context, e Experiment) (Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.rows[e.ID] = e
	return e, nil
}

func (s *memoryStore) StopRunning(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stopped []string
	for id, row := range s.rows {
		if row.Status == StatusRunning {
			row.Status = StatusStopped
			s.rows[id] = row
			stopped = append(stopped, id)
		}
	}
	return stopped, nil
}

func (s *memoryStore) GetRunning(ctx context.Context) (Experiment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.Status == StatusRunning {
			return row, true, nil
		}
	}
	return Experiment{}, false, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return Experiment{}, ErrNotFound
	}
	return row, nil
}

func (s *memoryStore) Update(ctx context.Context, e Experiment) (Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[e.ID]; !ok {
		return Experiment{}, ErrNotFound
	}
	s.rows[e.ID] = e
	return e, nil
}
