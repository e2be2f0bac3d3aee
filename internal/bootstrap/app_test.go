package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ahearnzach3/Where2Run/pkg/config"
	"github.com/ahearnzach3/Where2Run/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Environment: "test", ServiceName: "where2run-test"},
		Directions: config.DirectionsConfig{
			APIKey:         "key",
			BaseURL:        "http://127.0.0.1:1",
			TimeoutSeconds: 1,
		},
		Overpass: config.OverpassConfig{
			Endpoints:       []string{"http://127.0.0.1:1/api/interpreter"},
			TimeoutSeconds:  1,
			RadiusMeters:    300,
			CacheBackend:    "file",
			CacheDir:        filepath.Join(t.TempDir(), "overpass"),
			CacheTTLMinutes: 60,
		},
		Geocoding: config.GeocodingConfig{
			NominatimUserAgent: "where2run-test",
			CacheTTLHours:      1,
		},
		Elevation: config.ElevationConfig{Provider: "ors"},
		Search: config.SearchConfig{
			ToleranceMeters:     1207,
			StartFactor:         0.85,
			FactorStep:          0.05,
			LoopAttempts:        8,
			DirectionalAttempts: 5,
			ExtensionAttempts:   5,
			MetersPerPoint:      500,
			MinPoints:           10,
			MaxPoints:           40,
		},
		Presets:  config.PresetConfig{Dir: filepath.Join("..", "..", "data", "presets")},
		Training: config.TrainingConfig{PlanPath: filepath.Join("..", "..", "data", "training_plan.json")},
		Resilience: config.ResilienceConfig{
			CircuitBreaker: config.CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 1,
				TimeoutSeconds:   30,
				IntervalSeconds:  60,
			},
		},
	}
}

func TestNew_WiresServices(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Redis)
	assert.False(t, app.Cache.Enabled())
	assert.NotNil(t, app.Classifier)
	assert.NotNil(t, app.Routes)
	assert.NotNil(t, app.Elevation)
	assert.NotNil(t, app.Geocoding)
	require.NotNil(t, app.Training)
	assert.Len(t, app.Training.Weeks, 18)

	_, err = app.Presets.Get("Bridges")
	assert.NoError(t, err)
	assert.Empty(t, app.ReadinessChecks())
}

func TestNew_RedisCacheRequiresRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Overpass.CacheBackend = "redis"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		planPath string
		want     int
	}{
		{"with training plan", "", http.StatusOK},
		{"without training plan", "missing.json", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.planPath != "" {
				cfg.Training.PlanPath = filepath.Join(t.TempDir(), tt.planPath)
			}
			app, err := New(cfg)
			require.NoError(t, err)

			r := gin.New()
			app.RegisterRoutes(r.Group("/api/v1"))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/training/today?start=2025-01-06", nil))
			assert.Equal(t, tt.want, w.Code)

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/places/autocomplete?q=pitts", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestOverpassStatusURL(t *testing.T) {
	assert.Equal(t, "https://overpass-api.de/api/status", overpassStatusURL("https://overpass-api.de/api/interpreter"))
	assert.Equal(t, "https://z.overpass-api.de/api/status", overpassStatusURL("https://z.overpass-api.de/api/interpreter/"))
}

func TestDeepChecker_TracksBreakers(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)

	assert.Contains(t, app.breakers, "openrouteservice")
	assert.Contains(t, app.breakers, "elevation")
	assert.Contains(t, app.breakers, "http://127.0.0.1:1/api/interpreter")
	assert.NotNil(t, app.DeepChecker("test"))
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, app.Limiter)

	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Limit: 2, WindowSeconds: 60}
	app, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ratelimit.LocalLimiter{}, app.Limiter)
}
