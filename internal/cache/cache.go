// Package cache memoizes render-pass outputs keyed by the dataset fingerprint
// plus the computation's parameters. Callers own the cache instance and its
// lifetime; nothing here is process-global. A fingerprint change produces new
// keys, so stale entries age out by TTL instead of explicit invalidation, and
// no implementation ever writes back to source data.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is the memoization contract. Get reports a miss with ok=false; a
// backend error is returned so callers can fall through to recomputation.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Key builds a cache key from the dataset fingerprint and the parameters of
// the memoized computation, e.g. Key(fp, "aggregate", "week").
func Key(fingerprint string, parts ...string) string {
	elems := append([]string{"mp", fingerprint}, parts...)
	return strings.Join(elems, ":")
}
