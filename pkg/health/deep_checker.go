package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/httpclient"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DependencyStatus represents the health status of a single dependency
type DependencyStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	LatencyMs int64     `json:"latency_ms"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// BreakerStatus represents the status of a circuit breaker
type BreakerStatus struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Allows bool   `json:"allows_requests"`
}

// DeepHealthStatus represents the complete health status of the service
type DeepHealthStatus struct {
	Status        string                      `json:"status"`
	Version       string                      `json:"version,omitempty"`
	UptimeSeconds int64                       `json:"uptime_seconds"`
	Dependencies  map[string]DependencyStatus `json:"dependencies"`
	Breakers      map[string]BreakerStatus    `json:"circuit_breakers,omitempty"`
	CheckedAt     time.Time                   `json:"checked_at"`
}

// Pinger is satisfied by the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DeepCheckerConfig holds configuration for the deep checker
type DeepCheckerConfig struct {
	Version  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// DefaultDeepCheckerConfig returns sensible defaults
func DefaultDeepCheckerConfig() DeepCheckerConfig {
	return DeepCheckerConfig{
		Version:  "unknown",
		Timeout:  5 * time.Second,
		CacheTTL: 30 * time.Second,
	}
}

// DeepChecker probes Redis, the upstream APIs and the circuit breakers in
// front of them. Results are cached for CacheTTL so the endpoint cannot be
// used to hammer the public Overpass mirrors.
type DeepChecker struct {
	redis     Pinger
	breakers  map[string]*resilience.CircuitBreaker
	endpoints map[string]*httpclient.Client
	version   string
	startTime time.Time
	timeout   time.Duration
	cacheTTL  time.Duration

	mu          sync.RWMutex
	lastResult  *DeepHealthStatus
	lastChecked time.Time
}

// NewDeepChecker creates a new deep health checker
func NewDeepChecker(config DeepCheckerConfig) *DeepChecker {
	return &DeepChecker{
		breakers:  make(map[string]*resilience.CircuitBreaker),
		endpoints: make(map[string]*httpclient.Client),
		version:   config.Version,
		startTime: time.Now(),
		timeout:   config.Timeout,
		cacheTTL:  config.CacheTTL,
	}
}

// SetRedis sets the Redis client to check
func (d *DeepChecker) SetRedis(client Pinger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redis = client
}

// AddCircuitBreaker adds a circuit breaker to monitor. Nil breakers are ignored.
func (d *DeepChecker) AddCircuitBreaker(name string, breaker *resilience.CircuitBreaker) {
	if breaker == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakers[name] = breaker
}

// AddEndpoint adds an upstream status URL to probe with GET.
func (d *DeepChecker) AddEndpoint(name, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints[name] = httpclient.NewClient(url, d.timeout)
}

// Check performs a deep health check on all dependencies
func (d *DeepChecker) Check(ctx context.Context) *DeepHealthStatus {
	d.mu.RLock()
	if d.lastResult != nil && time.Since(d.lastChecked) < d.cacheTTL {
		result := d.lastResult
		d.mu.RUnlock()
		return result
	}
	redis := d.redis
	endpoints := make(map[string]*httpclient.Client, len(d.endpoints))
	for k, v := range d.endpoints {
		endpoints[k] = v
	}
	breakers := make(map[string]*resilience.CircuitBreaker, len(d.breakers))
	for k, v := range d.breakers {
		breakers[k] = v
	}
	d.mu.RUnlock()

	status := &DeepHealthStatus{
		Status:        StatusHealthy,
		Version:       d.version,
		UptimeSeconds: int64(time.Since(d.startTime).Seconds()),
		Dependencies:  make(map[string]DependencyStatus),
		Breakers:      make(map[string]BreakerStatus),
		CheckedAt:     time.Now(),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	record := func(dep DependencyStatus, failed string) {
		mu.Lock()
		defer mu.Unlock()
		status.Dependencies[dep.Name] = dep
		if dep.Status == failed {
			status.Status = StatusDegraded
		}
	}

	if redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(d.checkRedis(ctx, redis), StatusUnhealthy)
		}()
	}

	for name, client := range endpoints {
		wg.Add(1)
		go func(name string, client *httpclient.Client) {
			defer wg.Done()
			record(d.checkEndpoint(ctx, name, client), StatusUnhealthy)
		}(name, client)
	}

	wg.Wait()

	for name, breaker := range breakers {
		allows := breaker.Allow()
		if !allows {
			status.Status = StatusDegraded
		}
		status.Breakers[name] = BreakerStatus{
			Name:   name,
			State:  breaker.State(),
			Allows: allows,
		}
	}

	d.mu.Lock()
	d.lastResult = status
	d.lastChecked = time.Now()
	d.mu.Unlock()

	return status
}

func (d *DeepChecker) checkRedis(ctx context.Context, redis Pinger) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{Name: "redis", CheckedAt: start}

	checkCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := redis.Ping(checkCtx); err != nil {
		status.Status = StatusUnhealthy
		status.Message = fmt.Sprintf("ping failed: %v", err)
	} else {
		status.Status = StatusHealthy
	}
	status.LatencyMs = time.Since(start).Milliseconds()
	return status
}

// checkEndpoint treats 5xx and transport errors as unhealthy and other
// error statuses as degraded.
func (d *DeepChecker) checkEndpoint(ctx context.Context, name string, client *httpclient.Client) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{Name: name, CheckedAt: start, Status: StatusHealthy}

	_, err := client.Get(ctx, "", nil)
	status.LatencyMs = time.Since(start).Milliseconds()

	var httpErr *httpclient.HTTPError
	switch {
	case err == nil:
	case errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError:
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("status code: %d", httpErr.StatusCode)
	default:
		status.Status = StatusUnhealthy
		status.Message = err.Error()
	}
	return status
}

// GinHandler returns a Gin handler for the deep health check endpoint.
// Degraded still answers 200; route generation keeps working on fallbacks.
func (d *DeepChecker) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := d.Check(c.Request.Context())

		code := http.StatusOK
		if status.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
