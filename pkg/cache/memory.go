package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache is a cache implementation on top of go-cache. Unlike Ristretto
// every Set is admitted and visible immediately.
type MemoryCache struct {
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewMemoryCache creates a go-cache backed cache. Expired entries are purged
// every cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:  gocache.New(gocache.NoExpiration, cleanupInterval),
		logger: logger,
	}
}

// Get retrieves a value from the cache.
func (m *MemoryCache) Get(key string) (interface{}, bool) {
	value, found := m.cache.Get(key)
	if found {
		CacheHitsTotal.WithLabelValues(BackendMemory).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(BackendMemory).Inc()
	}
	return value, found
}

// Set stores a value in the cache with a TTL. A non-positive ttl never expires.
func (m *MemoryCache) Set(key string, value interface{}, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.cache.Set(key, value, ttl)
	CacheSetsTotal.WithLabelValues(BackendMemory).Inc()
	m.logger.Debug("cache-set",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return true
}

// Delete removes a value from the cache.
func (m *MemoryCache) Delete(key string) {
	m.cache.Delete(key)
	CacheDeletesTotal.WithLabelValues(BackendMemory).Inc()
}

// Clear removes all values from the cache.
func (m *MemoryCache) Clear() {
	m.cache.Flush()
	m.logger.Info("cache-cleared", zap.String("backend", BackendMemory))
}

// Close flushes the cache. The janitor goroutine is stopped by go-cache's
// finalizer once the cache is unreachable.
func (m *MemoryCache) Close() {
	m.cache.Flush()
}

// ItemCount returns the number of entries, including expired ones not yet purged.
func (m *MemoryCache) ItemCount() int {
	return m.cache.ItemCount()
}
