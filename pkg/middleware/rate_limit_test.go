package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	res  ratelimit.Result
	err  error
	keys []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	return s.res, s.err
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantCode   int
		wantRetry  string
		wantHeader bool
	}{
		{"allowed", &stubLimiter{res: ratelimit.Result{Allowed: true, Remaining: 4, Limit: 5}}, http.StatusOK, "", true},
		{"denied", &stubLimiter{res: ratelimit.Result{Limit: 5, RetryAfter: 1500 * time.Millisecond}}, http.StatusTooManyRequests, "2", true},
		{"limiter error fails open", &stubLimiter{err: errors.New("redis down")}, http.StatusOK, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RateLimit(tt.limiter))
			router.POST("/api/v1/routes/loop", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/loop", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantRetry, w.Header().Get("Retry-After"))
			assert.Equal(t, tt.wantHeader, w.Header().Get("X-RateLimit-Limit") != "")
			assert.Equal(t, []string{"/api/v1/routes/loop:10.0.0.1"}, tt.limiter.keys)
		})
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
