package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal tracks completed polls by source and result.
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_polls_total",
		Help: "Total number of applied polls",
	}, []string{"source", "result"})

	// PollDurationSeconds tracks poll latency.
	PollDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbitrage_pro_poll_duration_seconds",
		Help:    "Duration of backend polls",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// StaleDiscardedTotal tracks responses dropped because a newer poll won.
	StaleDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_poll_stale_discarded_total",
		Help: "Total number of poll results discarded as superseded",
	}, []string{"source"})

	// ItemsGauge tracks the size of the latest applied list.
	ItemsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbitrage_pro_poll_items",
		Help: "Number of items in the latest applied poll",
	}, []string{"source"})
)
