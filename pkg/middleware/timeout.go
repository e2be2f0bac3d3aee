package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestTimeout bounds a request with gin-contrib/timeout and answers 504
// when the handler does not finish in time.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			logger.WithContext(c.Request.Context()).Warn("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Duration("timeout", d),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error":   "Request timeout",
				"message": "The route search took too long to complete",
			})
		}),
	)
}

// Deadline attaches a deadline to the request context so that blocking
// upstream calls stop once the client-facing timeout has fired.
func Deadline(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
