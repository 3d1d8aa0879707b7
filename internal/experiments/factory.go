package experiments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BackendConfig selects which Store implementation New builds.
type BackendConfig struct {
	Backend string // "", "memory", "postgres", or "auto"
}

// New builds a Store per cfg.Backend, mirroring configstore's factory.
func New(ctx context.Context, cfg BackendConfig, pool *pgxpool.Pool) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("experiments: postgres backend requires a pool")
		}
		return NewPostgresStore(ctx, pool)
	case "auto":
		if pool != nil {
			if s, err := NewPostgresStore(ctx, pool); err == nil {
				return s, nil
			}
		}
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("experiments: unknown backend %q", cfg.Backend)
	}
}
