package jobs

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BackendConfig selects which Repository implementation New builds,
// mirroring configstore's factory.go pattern. There is no "auto" probe here:
// since the jobs table is externally owned, an explicit postgres DSN is the
// only way to opt into it, and the zero value always means memory.
type BackendConfig struct {
	Backend string // "", "memory", or "postgres"
}

// New builds a Repository (which also satisfies Lister) per cfg.Backend.
func New(cfg BackendConfig, pool *pgxpool.Pool) (interface {
	Repository
	Lister
}, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryRepository(), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("jobs: postgres backend requires a pool")
		}
		return NewPostgresRepository(pool), nil
	default:
		return nil, fmt.Errorf("jobs: unknown backend %q", cfg.Backend)
	}
}
