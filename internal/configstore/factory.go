package configstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BackendConfig selects which Store implementation New builds, mirroring
// factory.go's backend-switch pattern.
type BackendConfig struct {
	Backend string // "", "memory", "postgres", or "auto"
	DSN     string
}

// New builds a Store per cfg.Backend. "auto" tries Postgres and falls back
// to memory; "postgres" requires a pool; "" and "memory" are always
// in-memory; anything else is an error.
func New(ctx context.Context, cfg BackendConfig, pool *pgxpool.Pool) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("configstore: postgres backend requires a pool")
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
		return nil, fmt.Errorf("configstore: unknown backend %q", cfg.Backend)
	}
}
