// Package cache defines the store for memoized query results.
package cache

import (
	"context"
	"time"
)

// Cache holds encoded result sets by key. Entries are never invalidated
// explicitly; they age out after their ttl. A zero ttl selects the backend
// default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TierStats counts the lookups answered by one cache tier.
type TierStats struct {
	Tier   string `json:"tier"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Errors uint64 `json:"errors,omitempty"`
}

// StatsReporter is implemented by caches that count their lookups.
type StatsReporter interface {
	CacheStats() []TierStats
}
