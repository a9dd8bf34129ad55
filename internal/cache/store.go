package cache

import (
	"context"
	"time"
)

// Store is the Redis-compatible key/value backend CacheManager persists
// segments and counters to (spec.md §6 "Cache storage"). A lookup failure
// is never retried by CacheManager; a write failure on segment writes is
// always propagated (spec.md §7).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	// TTL returns the remaining time-to-live for key, or a negative
	// duration if the key has no expiry or does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
