package metricsrecorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BackendConfig selects which Store implementation New builds, mirroring
// configstore's factory.go backend-switch pattern.
type BackendConfig struct {
	Backend string // "", "memory", "postgres", or "auto"
}

// New builds a Store per cfg.Backend.
func New(ctx context.Context, cfg BackendConfig, pool *pgxpool.Pool) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewRing(), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("metricsrecorder: postgres backend requires a pool")
		}
		return NewPostgresStore(ctx, pool)
	case "auto":
		if pool != nil {
			if s, err := NewPostgresStore(ctx, pool); err == nil {
				return s, nil
			}
		}
		return NewRing(), nil
	default:
		return nil, fmt.Errorf("metricsrecorder: unknown backend %q", cfg.Backend)
	}
}

// degradingStore wraps an authoritative Store and falls back to an
// in-memory ring on insert failure, per the documented "on persistence
// failure, append to an in-memory ring of <=5000 rows and return the
// payload anyway" requirement. Reads are served from the authoritative
// store; the ring is a write-path safety net only.
type degradingStore struct {
	authoritative Store
	ring          *Ring
}

// NewDegradingStore wraps authoritative with a ring fallback. Pass a ring
// Store (from New with Backend "" or "memory") as authoritative to get a
// plain ring with no extra wrapping.
func NewDegradingStore(authoritative Store) Store {
	if _, ok := authoritative.(*Ring); ok {
		return authoritative
	}
	return &degradingStore{authoritative: authoritative, ring: NewRing()}
}

func (d *degradingStore) Insert(ctx context.Context, m Metric) (Metric, error) {
	out, err := d.authoritative.Insert(ctx, m)
	if err != nil {
		return d.ring.Insert(ctx, m)
	}
	return out, nil
}

func (d *degradingStore) ListRecent(ctx context.Context, limit int) ([]Metric, error) {
	return d.authoritative.ListRecent(ctx, limit)
}

func (d *degradingStore) AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (float64, float64, int, error) {
	return d.authoritative.AggregateScore(ctx, configVersionID, from, to)
}
