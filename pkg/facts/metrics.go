package facts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	factCollectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rhsm_fact_collection_duration_seconds",
			Help:    "Time taken to collect a single fact",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"fact"},
	)

	factCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhsm_fact_cache_total",
			Help: "Fact cache lookups by result",
		},
		[]string{"fact", "result"}, // hit, miss or error
	)

	snapshotTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rhsm_fact_snapshot_total",
			Help: "Total number of fact snapshot attempts",
		},
		[]string{"status"}, // success or error
	)
)
