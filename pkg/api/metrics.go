package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rhsm_fact_refresh_total",
		Help: "Background fact refreshes by outcome.",
	},
	[]string{"status"},
)
