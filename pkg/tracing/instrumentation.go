package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Route search span attributes
const (
	SearchVariantKey     = attribute.Key("search.variant")
	SearchTargetKey      = attribute.Key("search.target_meters")
	SearchDistanceKey    = attribute.Key("search.distance_meters")
	SearchAttemptsKey    = attribute.Key("search.attempts")
	SearchStatusKey      = attribute.Key("search.status")
	SearchProfileKey     = attribute.Key("search.profile")
	LocationLatitudeKey  = attribute.Key("location.latitude")
	LocationLongitudeKey = attribute.Key("location.longitude")
	PeerServiceKey       = attribute.Key("peer.service")
	CacheKeyKey          = attribute.Key("cache.key")
)

// TraceExternalAPI wraps a call to an upstream API in a client span.
func TraceExternalAPI(ctx context.Context, tracerName, serviceName, operation string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("%s.%s", serviceName, operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(PeerServiceKey.String(serviceName)),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// TraceCacheLookup wraps a cache read in a client span and records hit/miss.
func TraceCacheLookup(ctx context.Context, tracerName, key string, fn func(context.Context) (bool, error)) (bool, error) {
	ctx, span := StartSpan(ctx, tracerName, "cache.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(CacheKeyKey.String(key)),
	)
	defer span.End()

	hit, err := fn(ctx)
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return hit, err
}

// LocationAttributes returns span attributes for a coordinate.
func LocationAttributes(latitude, longitude float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		LocationLatitudeKey.Float64(latitude),
		LocationLongitudeKey.Float64(longitude),
	}
}
