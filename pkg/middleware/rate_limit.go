package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_rate_limited_total",
	Help: "Requests rejected by the rate limiter",
}, []string{"route"})

// RateLimit applies limiter per client IP and route. Limiter errors let the
// request through. A nil limiter disables limiting.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		identity := c.ClientIP()
		if identity == "" {
			identity = "unknown"
		}

		res, err := limiter.Allow(c.Request.Context(), route+":"+identity)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limit evaluation failed",
				zap.String("route", route),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			rateLimitedTotal.WithLabelValues(route).Inc()
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.Response{
				Error: &common.ErrorInfo{
					Code:      http.StatusTooManyRequests,
					ErrorCode: "RATE_LIMITED",
					Message:   "Too many requests, please wait and try again.",
				},
			})
			return
		}

		c.Next()
	}
}
