package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// averageEntryCost sizes ristretto's admission counters from a cost budget.
const averageEntryCost = 50

// New builds a cache for the named backend. maxCost bounds the ristretto
// backend (see Coster); the memory backend is unbounded.
func New(backend string, maxCost int64, logger *zap.Logger) (Cache, error) {
	switch backend {
	case BackendRistretto:
		entries := maxCost / averageEntryCost
		if entries < 100 {
			entries = 100
		}
		c, err := NewRistrettoCache(&RistrettoConfig{
			NumCounters: entries * 10,
			MaxCost:     maxCost,
			BufferItems: 64,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMemory:
		return NewMemoryCache(10*time.Minute, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
