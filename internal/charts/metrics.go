package charts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HistoryLookupsTotal tracks chart cache lookups by result (hit, miss).
	HistoryLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_history_lookups_total",
		Help: "Total number of chart history cache lookups",
	}, []string{"result"})

	// HistoryFetchErrorsTotal tracks failed per-chain history fetches.
	HistoryFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbitrage_pro_history_fetch_errors_total",
		Help: "Total number of failed chart history fetches",
	})
)
