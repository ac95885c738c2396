// Package cache provides TTL key-value storage for analysis snapshots and
// reports. Expiry is checked lazily at read time; there is no eviction
// sweep.
package cache

import (
	"context"
	"time"
)

// Store is the persistence contract the orchestrator depends on. A miss is
// (nil, false, nil); errors are reserved for storage failures, which callers
// treat as non-fatal.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
