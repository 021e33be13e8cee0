// Package cache wraps a ristretto local cache with a default TTL.
// Grounded on common/cache/ristretto.go's GeneralCache; used here only
// by the oracle adapter to memoize pure legality verdicts.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a TTL-scoped local cache.
type Cache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// New builds a cache with the given max cost and default TTL. Set gives
// every entry a cost of 1, so maxCost bounds the number of entries.
func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &Cache{cache: c, ttl: ttl}, nil
}

// Set stores a value under the default TTL.
func (c *Cache) Set(key string, value any) bool {
	return c.cache.SetWithTTL(key, value, 1, c.ttl)
}

// Get retrieves a value by key.
func (c *Cache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.cache.Del(key)
}

// Close releases cache resources.
func (c *Cache) Close() {
	c.cache.Close()
}
