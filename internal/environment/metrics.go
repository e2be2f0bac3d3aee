package environment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "environment_cache_lookups_total",
			Help: "Environment cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	endpointFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "environment_endpoint_failures_total",
			Help: "Failed Overpass requests per endpoint",
		},
		[]string{"endpoint"},
	)

	verdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "environment_verdicts_total",
			Help: "Classifier verdicts by mode",
		},
		[]string{"mode", "verdict"},
	)
)
