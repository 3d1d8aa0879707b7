package security

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BackendConfig selects which Store implementation New builds, mirroring
// metricsrecorder/configstore's factory.go backend-switch pattern.
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
			return nil, fmt.Errorf("security: postgres backend requires a pool")
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
		return nil, fmt.Errorf("security: unknown backend %q", cfg.Backend)
	}
}
