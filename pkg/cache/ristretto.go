package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// Coster is implemented by values whose cache cost is not 1, such as price
// series costing one unit per point.
type Coster interface {
	CacheCost() int64
}

// RistrettoCache is a cost-bounded cache implementation using Ristretto.
// Writes may be rejected by the TinyLFU admission policy.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds configuration for Ristretto cache.
type RistrettoConfig struct {
	NumCounters int64 // Keys tracked for admission, ~10x the expected entry count
	MaxCost     int64 // Total cost budget; see Coster
	BufferItems int64 // Number of keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a new Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (*RistrettoCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
		Cost:        valueCost,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &RistrettoCache{
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

func valueCost(value interface{}) int64 {
	if c, ok := value.(Coster); ok && c.CacheCost() > 0 {
		return c.CacheCost()
	}
	return 1
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.cache.Get(key)
	if found {
		CacheHitsTotal.WithLabelValues(BackendRistretto).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(BackendRistretto).Inc()
	}
	return value, found
}

// Set stores a value with a TTL, costed by Coster. Rejected writes return
// false. Set waits for ristretto's write buffer, so an accepted value is
// visible to Get on return (unless the policy evicts it straight away).
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	// Cost 0 makes ristretto call valueCost when the write is applied.
	admitted := r.cache.SetWithTTL(key, value, 0, ttl)
	if !admitted {
		CacheRejectsTotal.WithLabelValues(BackendRistretto).Inc()
		r.logger.Debug("cache-set-rejected", zap.String("key", key))
		return false
	}
	r.cache.Wait()

	CacheSetsTotal.WithLabelValues(BackendRistretto).Inc()
	r.logger.Debug("cache-set",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return true
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)
	CacheDeletesTotal.WithLabelValues(BackendRistretto).Inc()
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
	r.logger.Info("cache-cleared", zap.String("backend", BackendRistretto))
}

// HitRatio returns hits / (hits + misses) as tracked by ristretto.
func (r *RistrettoCache) HitRatio() float64 {
	return r.cache.Metrics.Ratio()
}

// CostUsed returns the cost of the entries currently held.
func (r *RistrettoCache) CostUsed() int64 {
	return int64(r.cache.Metrics.CostAdded() - r.cache.Metrics.CostEvicted())
}

// Close closes the cache and releases resources.
func (r *RistrettoCache) Close() {
	r.logger.Info("cache-closed",
		zap.String("backend", BackendRistretto),
		zap.Float64("hit-ratio", r.HitRatio()),
		zap.Int64("cost-used", r.CostUsed()))
	r.cache.Close()
}

// Wait blocks until all pending writes have been applied.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
