package configstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memoryStore is the authoritative backend for the process lifetime when no
// Postgres DSN is configured. Guarded by a single mutex, mirroring
// chat_store_memory.go's map-of-rows-plus-RWMutex shape.
type memoryStore struct {
	mu   sync.RWMutex
	rows map[string]Version
}

// NewMemoryStore returns an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{rows: make(map[string]Version)}
}

func (s *memoryStore) Insert(ctx context.Context, v Version) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.IsActive {
		for id, row := range s.rows {
			if row.IsActive {
				row.IsActive = false
				s.rows[id] = row
			}
		}
	}
	s.rows[v.ID] = v
	return v, nil
}

func (s *memoryStore) Activate(ctx context.Context, id string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.rows[id]
	if !ok {
		return Version{}, ErrNotFound
	}
	for rowID, row := range s.rows {
		if row.IsActive && rowID != id {
			row.IsActive = false
			s.rows[rowID] = row
		}
	}
	target.IsActive = true
	s.rows[id] = target
	return target, nil
}

func (s *memoryStore) GetActive(ctx context.Context) (Version, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.IsActive {
			return row, true, nil
		}
	}
	return Version{}, false, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return Version{}, ErrNotFound
	}
	return row, nil
}

func (s *memoryStore) List(ctx context.Context, limit int) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = clampListLimit(limit)
	out := make([]Version, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) PromoteNewest(ctx context.Context) (Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *Version
	for id := range s.rows {
		row := s.rows[id]
		if newest == nil || row.CreatedAt.After(newest.CreatedAt) {
			r := row
			newest = &r
		}
	}
	if newest == nil {
		return Version{}, false, nil
	}
	for id, row := range s.rows {
		if row.IsActive && id != newest.ID {
			row.IsActive = false
			s.rows[id] = row
		}
	}
	newest.IsActive = true
	s.rows[newest.ID] = *newest
	return *newest, true, nil
}
