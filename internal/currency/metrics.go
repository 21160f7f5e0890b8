package currency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RatesLoadedTotal tracks rate table loads by source (cache, network, fallback).
	RatesLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_pro_exchange_rates_loaded_total",
		Help: "Total number of exchange rate loads",
	}, []string{"source"})
)
