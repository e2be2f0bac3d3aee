package directions

import (
	"context"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/ahearnzach3/Where2Run/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const tracerName = "where2run/directions"

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directions_requests_total",
			Help: "Directions provider calls by operation, profile and result",
		},
		[]string{"operation", "profile", "result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directions_request_duration_seconds",
			Help:    "Directions provider call latency",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20},
		},
		[]string{"operation"},
	)
)

// ResilientProvider wraps a Provider with a circuit breaker, a client span
// and Prometheus metrics. A nil breaker disables breaking.
type ResilientProvider struct {
	next    Provider
	breaker *resilience.CircuitBreaker
	service string
}

// NewResilientProvider decorates next.
func NewResilientProvider(next Provider, breaker *resilience.CircuitBreaker, service string) *ResilientProvider {
	if service == "" {
		service = "openrouteservice"
	}
	return &ResilientProvider{next: next, breaker: breaker, service: service}
}

// Leg implements Provider.
func (p *ResilientProvider) Leg(ctx context.Context, req LegRequest) (geo.Path, error) {
	return p.call(ctx, "leg", req.Profile, func(ctx context.Context) (geo.Path, error) {
		return p.next.Leg(ctx, req)
	})
}

// RoundTrip implements Provider.
func (p *ResilientProvider) RoundTrip(ctx context.Context, req RoundTripRequest) (geo.Path, error) {
	return p.call(ctx, "round_trip", req.Profile, func(ctx context.Context) (geo.Path, error) {
		return p.next.RoundTrip(ctx, req)
	})
}

func (p *ResilientProvider) call(ctx context.Context, operation string, profile Profile, fn func(context.Context) (geo.Path, error)) (geo.Path, error) {
	start := time.Now()
	var path geo.Path

	err := tracing.TraceExternalAPI(ctx, tracerName, p.service, operation, func(ctx context.Context) error {
		result, err := p.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return fn(ctx)
		})
		if err != nil {
			return err
		}
		path, _ = result.(geo.Path)
		return nil
	})

	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	requestsTotal.WithLabelValues(operation, string(profile), result).Inc()

	return path, err
}
