package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/curato/internal/model"
)

// MemoryCache implements in-memory expiring caching
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a copy of the cached evidence
func (c *MemoryCache) Get(key string) ([]model.Evidence, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	evs, ok := val.([]model.Evidence)
	if !ok {
		return nil, false
	}
	return append([]model.Evidence(nil), evs...), true
}

// Set stores a copy of value with the given TTL (0 = default TTL)
func (c *MemoryCache) Set(key string, value []model.Evidence, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, append([]model.Evidence(nil), value...), ttl)
	return nil
}
