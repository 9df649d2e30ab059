package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rhsm_command_duration_seconds",
			Help:    "Time taken by a single subscription-manager invocation",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"subcommand"}, // list, attach, remove, repos, identity
	)

	commandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhsm_command_total",
			Help: "Total number of subscription-manager invocations",
		},
		[]string{"subcommand", "status"}, // success, error or timeout
	)
)
