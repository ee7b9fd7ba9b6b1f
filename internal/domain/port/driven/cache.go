package driven

import (
	"context"
	"time"
)

// Cache defines the driven port for a key-value cache with expiry.
// Keys are namespaced by entity kind, e.g. "contrib_tracker:node:123".
type Cache interface {
	// Get returns the cached value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
