package ratelimit

import (
	"context"
	"time"
)

// Limiter reports whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Config controls the limiter's rate and optional Redis backing.
type Config struct {
	RequestsPerSecond float64
	BurstSize         int
	RedisAddr         string
}

// DefaultConfig is tuned for the mutation-route use case: a handful of
// operator actions per minute rather than a high-frequency API.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 1,
		BurstSize:         5,
	}
}

// New builds a Limiter: Redis-backed when cfg.RedisAddr is set, falling
// back to the in-process bucket otherwise, the same optional-backend
// posture as configstore/metricsrecorder/feedback's store factories.
func New(ctx context.Context, cfg Config) Limiter {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	refillRate := time.Duration(float64(time.Second) / cfg.RequestsPerSecond)

	if cfg.RedisAddr != "" {
		if rl, err := newRedisLimiter(ctx, cfg.RedisAddr, cfg.BurstSize, refillRate); err == nil {
			return rl
		}
	}
	return newInProcessLimiter(cfg.BurstSize, refillRate)
}
