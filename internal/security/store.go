package security

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const ringCapacity = 500

// Store persists security events. Insert never blocks on the ring; ring
// overflow silently discards the oldest row, the same bounded-ring shape
// as internal/metricsrecorder's Ring.
type Store interface {
	Insert(ctx context.Context, e Event) (Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Ring is the bounded in-memory fallback/standalone Store.
type Ring struct {
	mu   sync.RWMutex
	rows []Event
	cap  int
}

// NewRing returns a Ring with the documented 500-row capacity.
func NewRing() *Ring {
	return &Ring{cap: ringCapacity}
}

func (r *Ring) Insert(ctx context.Context, e Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, e)
	if len(r.rows) > r.cap {
		r.rows = r.rows[len(r.rows)-r.cap:]
	}
	return e, nil
}

func (r *Ring) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.rows)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, limit)
	for i := 0; i < limit; i++ {
		out[i] = r.rows[n-1-i]
	}
	return out, nil
}
