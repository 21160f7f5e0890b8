package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"backend"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"backend"})

	CacheSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_cache_sets_total",
		Help: "Total number of cache sets",
	}, []string{"backend"})

	CacheRejectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_cache_rejects_total",
		Help: "Total number of writes rejected by the admission policy",
	}, []string{"backend"})

	CacheDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_cache_deletes_total",
		Help: "Total number of cache deletes",
	}, []string{"backend"})
)
