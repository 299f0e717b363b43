package interfaces

import (
	"context"
	"time"
)

// Cache stores values for a bounded time.
type Cache interface {
	// Get returns the value for key. Missing and expired keys report a miss.
	Get(ctx context.Context, key string) (interface{}, error)

	// Set stores a value with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error
}
