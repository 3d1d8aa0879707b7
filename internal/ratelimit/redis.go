package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisLimiter is a fixed-window counter shared across replicas: INCR a
// per-key counter with a TTL equal to the window, deny once the count
// exceeds capacity for the window. Simpler than a true distributed token
// bucket (no partial refill mid-window) but sufficient to hold the same
// "N requests per window" shape across replicas that a multi-instance
// deployment needs for its 429 behavior to be consistent.
type redisLimiter struct {
	client   *redis.Client
	capacity int
	window   time.Duration
}

func newRedisLimiter(ctx context.Context, addr string, capacity int, refillRate time.Duration) (*redisLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ratelimit: redis ping failed: %w", err)
	}
	return &redisLimiter{
		client:   client,
		capacity: capacity,
		window:   refillRate * time.Duration(capacity),
	}, nil
}

func (r *redisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := "retentionloop:ratelimit:" + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Redis unavailable mid-flight: fail open rather than block every
		// mutation route on a cache outage.
		return true
	}
	if count == 1 {
		_ = r.client.Expire(ctx, redisKey, r.window).Err()
	}
	return count <= int64(r.capacity)
}
