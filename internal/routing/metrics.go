package routing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_search_attempts_total",
			Help: "Search attempts by variant and outcome",
		},
		[]string{"variant", "outcome"},
	)

	searchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_search_results_total",
			Help: "Finished route searches by variant and status",
		},
		[]string{"variant", "status"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_search_duration_seconds",
			Help:    "Wall time of a route search including the profile fallback",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"variant"},
	)
)
