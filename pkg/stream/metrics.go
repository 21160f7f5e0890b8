package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectedClients tracks live WebSocket subscribers.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbitrage_pro_stream_connected_clients",
		Help: "Number of connected stream clients",
	})

	// MessagesPublishedTotal tracks published events by name.
	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_stream_messages_published_total",
		Help: "Total number of stream events published",
	}, []string{"event"})

	// DroppedClientsTotal tracks clients disconnected for falling behind.
	DroppedClientsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbitrage_pro_stream_dropped_clients_total",
		Help: "Total number of stream clients dropped for being too slow",
	})
)
