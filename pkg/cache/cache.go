package cache

import "time"

// Cache is a key/value store with per-entry TTL. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found or expired.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL.
	// Returns false if the value was dropped (e.g. rejected by admission policy).
	// An accepted value is visible to Get once Set returns.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}

// Backend names accepted by New.
const (
	BackendRistretto = "ristretto"
	BackendMemory    = "memory"
)
