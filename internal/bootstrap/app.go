// Package bootstrap assembles the services shared by the HTTP server and the
// route generator CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahearnzach3/Where2Run/internal/directions"
	"github.com/ahearnzach3/Where2Run/internal/elevation"
	"github.com/ahearnzach3/Where2Run/internal/environment"
	"github.com/ahearnzach3/Where2Run/internal/export"
	"github.com/ahearnzach3/Where2Run/internal/geocoding"
	"github.com/ahearnzach3/Where2Run/internal/preset"
	"github.com/ahearnzach3/Where2Run/internal/profile"
	"github.com/ahearnzach3/Where2Run/internal/routing"
	"github.com/ahearnzach3/Where2Run/internal/training"
	"github.com/ahearnzach3/Where2Run/pkg/cache"
	"github.com/ahearnzach3/Where2Run/pkg/config"
	"github.com/ahearnzach3/Where2Run/pkg/health"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/middleware"
	"github.com/ahearnzach3/Where2Run/pkg/ratelimit"
	redisclient "github.com/ahearnzach3/Where2Run/pkg/redis"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App holds the wired services.
type App struct {
	Config     *config.Config
	Redis      *redisclient.Client
	Cache      *cache.Manager
	Classifier *environment.Classifier
	Directions directions.Provider
	Routes     *routing.Service
	Presets    *preset.Registry
	Elevation  *elevation.Service
	Geocoding  *geocoding.Service
	Training   *training.Plan
	Limiter    ratelimit.Limiter

	breakers map[string]*resilience.CircuitBreaker
}

// New wires every service from cfg. Optional pieces (Redis, SRTM, the
// training plan) degrade with a warning instead of failing startup.
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, breakers: make(map[string]*resilience.CircuitBreaker)}

	if cfg.Redis.Enabled {
		client, err := redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.Redis = client
		logger.Info("Connected to redis", zap.String("addr", cfg.Redis.RedisAddr()))
	}

	var rc redisclient.ClientInterface
	if app.Redis != nil {
		rc = app.Redis
	}
	app.Cache = cache.NewManager(rc)

	store, err := app.environmentStore(rc)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Classifier = environment.NewClassifier(environment.Config{
		Endpoints:    cfg.Overpass.Endpoints,
		Timeout:      cfg.Overpass.Timeout(),
		RadiusMeters: cfg.Overpass.RadiusMeters,
		CacheTTL:     cfg.Overpass.CacheTTL(),
	}, store, environment.WithBreakers(app.breaker))

	app.Directions = directions.NewResilientProvider(
		directions.NewORSProvider(directions.ORSConfig{
			APIKey:         cfg.Directions.APIKey,
			BaseURL:        cfg.Directions.BaseURL,
			TimeoutSeconds: cfg.Directions.TimeoutSeconds,
			MaxRetries:     cfg.Directions.MaxRetries,
		}),
		app.breaker("openrouteservice"),
		"openrouteservice",
	)

	selector := profile.NewSelector(app.Classifier, cfg.Overpass.RadiusMeters)
	app.Routes = routing.NewService(app.Directions, selector, routing.SearchConfigFrom(cfg.Search))

	if app.Presets, err = preset.LoadDir(cfg.Presets.Dir); err != nil {
		app.Close()
		return nil, err
	}

	app.Elevation = elevation.NewService(app.elevationProvider(), app.breaker("elevation"), "elevation")
	app.Geocoding = app.geocodingService()

	app.Limiter = app.rateLimiter()

	if plan, err := training.Load(cfg.Training.PlanPath); err != nil {
		logger.Warn("Training plan unavailable", zap.String("path", cfg.Training.PlanPath), zap.Error(err))
	} else {
		app.Training = plan
	}

	return app, nil
}

func (a *App) environmentStore(rc redisclient.ClientInterface) (environment.Store, error) {
	o := a.Config.Overpass
	if o.CacheBackend == "redis" {
		if rc == nil {
			return nil, errors.New("overpass redis cache requires redis")
		}
		return environment.NewRedisStore(rc, o.CachePrefix, o.CacheTTL()), nil
	}
	store, err := environment.NewFileStore(o.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("overpass file cache: %w", err)
	}
	return store, nil
}

func (a *App) elevationProvider() elevation.Provider {
	if a.Config.Elevation.Provider == "srtm" {
		srtm, err := elevation.NewSRTMProvider(nil)
		if err == nil {
			return srtm
		}
		logger.Warn("SRTM elevation unavailable, using openrouteservice", zap.Error(err))
	}
	return elevation.NewORSProvider(a.Config.Directions.APIKey, a.Config.Directions.BaseURL, a.Config.Directions.Timeout())
}

func (a *App) geocodingService() *geocoding.Service {
	g := a.Config.Geocoding
	timeout := a.Config.Directions.Timeout()

	mapbox := geocoding.NewMapbox(g.MapboxToken, g.MapboxBaseURL, timeout)
	nominatim := geocoding.NewNominatim(g.NominatimBaseURL, g.NominatimUserAgent, timeout, geocoding.DefaultNominatimRetry())

	var suggester geocoding.Autocompleter
	if g.MapboxToken != "" {
		suggester = mapbox
	} else {
		logger.Warn("MAPBOX_TOKEN not set, place autocomplete disabled")
	}
	return geocoding.NewService(suggester, []geocoding.Geocoder{mapbox, nominatim}, a.Cache, g.CacheTTL())
}

// breaker returns nil when circuit breaking is disabled. Every breaker is
// remembered for the deep health check.
func (a *App) breaker(name string) *resilience.CircuitBreaker {
	cb := a.Config.Resilience.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	s := cb.SettingsFor(name)
	b := resilience.NewCircuitBreaker(
		resilience.BuildSettings(name, s.FailureThreshold, s.SuccessThreshold, s.TimeoutSeconds, s.IntervalSeconds),
		nil,
	)
	a.breakers[name] = b
	return b
}

// rateLimiter shares buckets through Redis when available. It returns a nil
// interface when limiting is off.
func (a *App) rateLimiter() ratelimit.Limiter {
	rl := a.Config.RateLimit
	if !rl.Enabled {
		return nil
	}
	rule := ratelimit.Rule{Limit: rl.Limit, Burst: rl.Burst, Window: rl.Window()}
	if a.Redis != nil {
		return ratelimit.NewRedisLimiter(a.Redis.Client, rl.RedisPrefix, rule)
	}
	return ratelimit.NewLocalLimiter(rule)
}

// DeepChecker reports Redis, upstream and breaker health.
func (a *App) DeepChecker(version string) *health.DeepChecker {
	cfg := health.DefaultDeepCheckerConfig()
	cfg.Version = version
	d := health.NewDeepChecker(cfg)

	if a.Redis != nil {
		d.SetRedis(a.Redis)
	}
	for name, b := range a.breakers {
		d.AddCircuitBreaker(name, b)
	}
	for i, endpoint := range a.Config.Overpass.Endpoints {
		d.AddEndpoint(fmt.Sprintf("overpass_%d", i+1), overpassStatusURL(endpoint))
	}
	if u := a.Config.Directions.HealthURL; u != "" {
		d.AddEndpoint("openrouteservice", u)
	}
	return d
}

// overpassStatusURL maps .../api/interpreter to .../api/status.
func overpassStatusURL(endpoint string) string {
	return strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "/interpreter") + "/status"
}

// RegisterRoutes mounts every API handler on rg behind the rate limiter.
func (a *App) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RateLimit(a.Limiter))
	routing.NewHandler(a.Routes, a.Presets).RegisterRoutes(rg)
	export.NewHandler().RegisterRoutes(rg)
	elevation.NewHandler(a.Elevation).RegisterRoutes(rg)
	geocoding.NewHandler(a.Geocoding).RegisterRoutes(rg)
	if a.Training != nil {
		training.NewHandler(a.Training).RegisterRoutes(rg)
	}
}

// ReadinessChecks returns the dependency checks for the readiness probe.
func (a *App) ReadinessChecks() map[string]func() error {
	checks := make(map[string]func() error)
	if a.Redis != nil {
		checks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return a.Redis.Ping(ctx)
		}
	}
	return checks
}

// Close releases external connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}
