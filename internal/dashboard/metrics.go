package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsPublishedTotal tracks snapshots pushed to live subscribers.
	SnapshotsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbitrage_pro_snapshots_published_total",
		Help: "Total number of dashboard snapshots published",
	})
)
