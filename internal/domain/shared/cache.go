package shared

import (
	"context"
	"time"
)

// KeyValueCache is a byte-oriented cache used by read paths.
// Implementations must be safe for concurrent use.
type KeyValueCache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
