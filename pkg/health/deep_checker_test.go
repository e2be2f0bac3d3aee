package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/health"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRedis struct {
	err error
}

func (s stubRedis) Ping(context.Context) error { return s.err }

func TestDeepChecker_CheckWithNoDependencies(t *testing.T) {
	checker := health.NewDeepChecker(health.DefaultDeepCheckerConfig())

	status := checker.Check(context.Background())

	assert.Equal(t, health.StatusHealthy, status.Status)
	assert.Empty(t, status.Dependencies)
	assert.Empty(t, status.Breakers)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestDeepChecker_Redis(t *testing.T) {
	checker := health.NewDeepChecker(health.DefaultDeepCheckerConfig())
	checker.SetRedis(stubRedis{err: errors.New("connection refused")})

	status := checker.Check(context.Background())

	assert.Equal(t, health.StatusDegraded, status.Status)
	assert.Equal(t, health.StatusUnhealthy, status.Dependencies["redis"].Status)
	assert.Contains(t, status.Dependencies["redis"].Message, "connection refused")
}

func TestDeepChecker_Endpoints(t *testing.T) {
	codes := map[string]int{"/ok": http.StatusOK, "/quota": http.StatusTooManyRequests, "/down": http.StatusBadGateway}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(codes[r.URL.Path])
	}))
	defer server.Close()

	checker := health.NewDeepChecker(health.DefaultDeepCheckerConfig())
	checker.AddEndpoint("overpass", server.URL+"/ok")
	checker.AddEndpoint("openrouteservice", server.URL+"/quota")
	status := checker.Check(context.Background())

	assert.Equal(t, health.StatusHealthy, status.Dependencies["overpass"].Status)
	assert.Equal(t, health.StatusDegraded, status.Dependencies["openrouteservice"].Status)
	assert.Equal(t, health.StatusHealthy, status.Status)

	cfg := health.DefaultDeepCheckerConfig()
	cfg.Timeout = time.Second
	down := health.NewDeepChecker(cfg)
	down.AddEndpoint("overpass", server.URL+"/down")
	status = down.Check(context.Background())

	assert.Equal(t, health.StatusUnhealthy, status.Dependencies["overpass"].Status)
	assert.Equal(t, health.StatusDegraded, status.Status)
}

func TestDeepChecker_CircuitBreakers(t *testing.T) {
	checker := health.NewDeepChecker(health.DefaultDeepCheckerConfig())

	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "openrouteservice",
		FailureThreshold: 1,
		Timeout:          time.Minute,
	}, nil)
	checker.AddCircuitBreaker("openrouteservice", breaker)
	checker.AddCircuitBreaker("disabled", nil)

	status := checker.Check(context.Background())
	require.Len(t, status.Breakers, 1)
	assert.Equal(t, "closed", status.Breakers["openrouteservice"].State)
	assert.True(t, status.Breakers["openrouteservice"].Allows)

	_, _ = breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return nil, errors.New("upstream failed")
	})

	fresh := health.NewDeepChecker(health.DefaultDeepCheckerConfig())
	fresh.AddCircuitBreaker("openrouteservice", breaker)
	status = fresh.Check(context.Background())
	assert.Equal(t, "open", status.Breakers["openrouteservice"].State)
	assert.Equal(t, health.StatusDegraded, status.Status)
}

func TestDeepChecker_CachesResult(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := health.NewDeepChecker(health.DefaultDeepCheckerConfig())
	checker.AddEndpoint("overpass", server.URL)

	first := checker.Check(context.Background())
	second := checker.Check(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestDeepChecker_GinHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := health.NewDeepChecker(health.DefaultDeepCheckerConfig())
	checker.SetRedis(stubRedis{})

	r := gin.New()
	r.GET("/health/deep", checker.GinHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/deep", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body health.DeepHealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, health.StatusHealthy, body.Status)
	assert.Equal(t, health.StatusHealthy, body.Dependencies["redis"].Status)
}
