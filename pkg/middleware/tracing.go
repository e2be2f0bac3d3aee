package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the server span's trace ID to the caller.
const TraceIDHeader = "X-Trace-ID"

// untracedPrefixes are probe, scrape and docs endpoints.
var untracedPrefixes = []string{"/health/", "/metrics", "/swagger/"}

// Tracing starts a server span per request, continuing any W3C trace context
// the caller sent. Route generation endpoints tag the span with their variant.
func Tracing(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untracedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		route := c.FullPath()
		if route == "" {
			route = path
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.client_ip", c.ClientIP()),
		}
		if variant, ok := strings.CutPrefix(route, "/api/v1/routes/"); ok {
			attrs = append(attrs, attribute.String("route.variant", variant))
		}
		if id := c.GetString(RequestIDKey); id != "" {
			attrs = append(attrs, attribute.String("http.request_id", id))
		}

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(TraceIDHeader, sc.TraceID().String())
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
		code, desc := spanStatus(status, len(c.Errors) > 0)
		span.SetStatus(code, desc)
	}
}

// spanStatus fails the span on 5xx or handler errors. 4xx stays unset.
func spanStatus(status int, handlerErrors bool) (codes.Code, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return codes.Error, http.StatusText(status)
	case handlerErrors:
		return codes.Error, "handler error"
	default:
		return codes.Unset, ""
	}
}
