package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhsm_pool_actions_total",
			Help: "Total number of pool attach and remove actions",
		},
		[]string{"action", "status"}, // create/destroy; success, error or planned
	)

	discoveredPools = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rhsm_consumed_pools",
			Help: "Number of consumed pools found by the last discovery",
		},
	)
)
