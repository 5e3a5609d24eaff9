package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when caching is disabled or Redis is unavailable; every lookup is a miss.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetScore always returns nil (cache miss)
func (c *NoOpCache) GetScore(ctx context.Context, key string) (*Entry, error) {
	return nil, nil
}

// SetScore does nothing and always succeeds
func (c *NoOpCache) SetScore(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
