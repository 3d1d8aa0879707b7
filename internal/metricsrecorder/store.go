package metricsrecorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const ringCapacity = 5000

// Store persists render-quality metrics. Insert never blocks on the ring;
// ring overflow silently discards the oldest row.
type Store interface {
	Insert(ctx context.Context, m Metric) (Metric, error)
	ListRecent(ctx context.Context, limit int) ([]Metric, error)
	AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (avg, stdev float64, n int, err error)
}

// Ring is the bounded in-memory fallback store (<=5000 rows, discard
// oldest), used both standalone and as C6's persistence-failure degrade
// path in front of a Postgres-backed Store.
type Ring struct {
	mu   sync.RWMutex
	rows []Metric
	cap  int
}

// NewRing returns a Ring with the documented 5000-row capacity.
func NewRing() *Ring {
	return &Ring{cap: ringCapacity}
}

func (r *Ring) Insert(ctx context.Context, m Metric) (Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, m)
	if len(r.rows) > r.cap {
		r.rows = r.rows[len(r.rows)-r.cap:]
	}
	return m, nil
}

func (r *Ring) ListRecent(ctx context.Context, limit int) ([]Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.rows)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Metric, limit)
	for i := 0; i < limit; i++ {
		out[i] = r.rows[n-1-i]
	}
	return out, nil
}

func (r *Ring) AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (float64, float64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var scores []float64
	for _, m := range r.rows {
		if m.ConfigVersionID != configVersionID {
			continue
		}
		if !from.IsZero() && m.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && m.CreatedAt.After(to) {
			continue
		}
		scores = append(scores, m.ScoreTotal)
	}
	return meanAndStdev(scores)
}

func meanAndStdev(scores []float64) (mean, stdev float64, n int, err error) {
	n = len(scores)
	if n == 0 {
		return 0, 0, 0, nil
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean = sum / float64(n)
	varSum := 0.0
	for _, s := range scores {
		d := s - mean
		varSum += d * d
	}
	stdev = sqrt(varSum / float64(n))
	return mean, stdev, n, nil
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 30; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}
