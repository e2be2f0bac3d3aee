package middleware

import (
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/ahearnzach3/Where2Run/pkg/errors"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Sentry binds a request-scoped hub to every request and reports panics
// before re-panicking into gin.Recovery.
func Sentry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorTracking reports handler errors and 5xx responses. It belongs after
// Sentry and before the route handlers.
func ErrorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		reported := false
		for _, e := range c.Errors {
			if apperrors.ShouldReportError(e.Err, status) {
				capture(c, status, time.Since(started), func(hub *sentry.Hub) { hub.CaptureException(e.Err) })
				reported = true
			}
		}
		if !reported && status >= 500 {
			msg := fmt.Sprintf("HTTP %d: %s %s", status, c.Request.Method, routeOf(c))
			capture(c, status, time.Since(started), func(hub *sentry.Hub) { hub.CaptureMessage(msg) })
		}
	}
}

func capture(c *gin.Context, status int, took time.Duration, send func(*sentry.Hub)) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.GetHubFromContext(c.Request.Context())
	}
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetLevel(apperrors.LevelForStatus(status))
		scope.SetTag("http.method", c.Request.Method)
		scope.SetTag("http.status_code", strconv.Itoa(status))
		scope.SetTag("http.route", routeOf(c))
		if id := c.GetString(RequestIDKey); id != "" {
			scope.SetTag("request_id", id)
		}
		if traceID := c.Writer.Header().Get(TraceIDHeader); traceID != "" {
			scope.SetTag("trace_id", traceID)
		}
		scope.SetContext("http", sentry.Context{
			"duration_ms": took.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
		send(hub)
	})
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}
