package archive

import (
	"context"
	"fmt"
)

// BackendConfig selects and configures the archive Store, matching the
// Backend-switch shape used by internal/configstore, internal/experiments,
// and internal/security's factories.
type BackendConfig struct {
	// Backend is "memory", "file", or "s3". Empty defaults to "file" when
	// Dir is set, otherwise "memory".
	Backend string
	// Dir is the filesystem root for the "file" backend.
	Dir string
	S3  S3Config
}

// New builds a Store from cfg.
func New(ctx context.Context, cfg BackendConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		if cfg.Backend == "" && cfg.Dir != "" {
			return NewFileStore(cfg.Dir)
		}
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Dir)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("archive: unknown backend %q", cfg.Backend)
	}
}
