package port

import (
	"context"
	"errors"
)

// ErrCacheMiss возвращается Cache.Get, когда ключа нет
var ErrCacheMiss = errors.New("cache miss: key not found")

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from cache; ErrCacheMiss when the key is absent
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error
}
