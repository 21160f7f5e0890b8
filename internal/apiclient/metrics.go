package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks backend requests by method and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_api_requests_total",
		Help: "Total number of backend API requests",
	}, []string{"method", "status"})

	// RequestDurationSeconds tracks backend request latency.
	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbitrage_pro_api_request_duration_seconds",
		Help:    "Duration of backend API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// RefreshTotal tracks access-token refresh attempts by result.
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_api_token_refresh_total",
		Help: "Total number of access token refresh attempts",
	}, []string{"result"})
)
