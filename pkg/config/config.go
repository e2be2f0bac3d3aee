package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Directions DirectionsConfig
	Overpass   OverpassConfig
	Geocoding  GeocodingConfig
	Elevation  ElevationConfig
	Search     SearchConfig
	Presets    PresetConfig
	Training   TrainingConfig
	Resilience ResilienceConfig
	RateLimit  RateLimitConfig
	Tracing    TracingConfig
	Sentry     SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int    // seconds; bounds a whole route search
	CORSOrigins    string // Comma-separated list of allowed origins
	LogLevel       string // empty keeps the environment default
}

// RedisConfig holds Redis configuration. When disabled the environment cache
// falls back to the file store and geocoding runs uncached.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// DirectionsConfig configures the OpenRouteService directions and
// elevation endpoints.
type DirectionsConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	MaxRetries     int
	// HealthURL is probed by the deep health check when set.
	HealthURL string
}

// OverpassConfig configures the environment classifier.
type OverpassConfig struct {
	Endpoints       []string
	TimeoutSeconds  int
	RadiusMeters    int
	CacheBackend    string // "file" or "redis"
	CacheDir        string
	CachePrefix     string
	CacheTTLMinutes int
}

// GeocodingConfig configures Mapbox and Nominatim.
type GeocodingConfig struct {
	MapboxToken        string
	MapboxBaseURL      string
	NominatimBaseURL   string
	NominatimUserAgent string
	CacheTTLHours      int
}

// ElevationConfig selects the elevation backend ("ors" or "srtm").
type ElevationConfig struct {
	Provider string
}

// SearchConfig tunes the route search loop.
type SearchConfig struct {
	ToleranceMeters     float64
	StartFactor         float64
	FactorStep          float64
	LoopAttempts        int
	DirectionalAttempts int
	ExtensionAttempts   int
	MetersPerPoint      float64
	MinPoints           int
	MaxPoints           int
	DirectionalPauseMs  int
}

// PresetConfig points at the directory of CSV preset segments.
type PresetConfig struct {
	Dir string
}

// TrainingConfig points at the JSON training plan.
type TrainingConfig struct {
	PlanPath string
}

// RateLimitConfig bounds requests per client IP and route. Buckets live in
// Redis when it is enabled, otherwise in process memory.
type RateLimitConfig struct {
	Enabled       bool
	Limit         int
	Burst         int
	WindowSeconds int
	RedisPrefix   string
}

// SentryConfig holds error tracking settings. An empty DSN disables it.
type SentryConfig struct {
	DSN        string
	Release    string
	SampleRate float64
	Debug      bool
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceVersion string
	SampleRate     float64
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-service breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream service
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// DefaultOverpassEndpoints are tried in order.
var DefaultOverpassEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
	"https://z.overpass-api.de/api/interpreter",
}

// Load loads configuration from a .env file (if present) and the environment.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 120),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 90),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8501"),
			LogLevel:       getEnv("LOG_LEVEL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Directions: DirectionsConfig{
			APIKey:         getEnv("ORS_API_KEY", ""),
			BaseURL:        getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
			TimeoutSeconds: getEnvAsInt("ORS_TIMEOUT_SECONDS", 20),
			MaxRetries:     getEnvAsInt("ORS_MAX_RETRIES", 2),
			HealthURL:      getEnv("ORS_HEALTH_URL", ""),
		},
		Overpass: OverpassConfig{
			Endpoints:       getEnvAsSlice("OVERPASS_ENDPOINTS", DefaultOverpassEndpoints),
			TimeoutSeconds:  getEnvAsInt("OVERPASS_TIMEOUT_SECONDS", 30),
			RadiusMeters:    getEnvAsInt("OVERPASS_RADIUS_METERS", 300),
			CacheBackend:    getEnv("OVERPASS_CACHE_BACKEND", "file"),
			CacheDir:        getEnv("OVERPASS_CACHE_DIR", "cache/overpass"),
			CachePrefix:     getEnv("OVERPASS_CACHE_PREFIX", "overpass:"),
			CacheTTLMinutes: getEnvAsInt("OVERPASS_CACHE_TTL_MINUTES", 60),
		},
		Geocoding: GeocodingConfig{
			MapboxToken:        getEnv("MAPBOX_TOKEN", ""),
			MapboxBaseURL:      getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
			NominatimBaseURL:   getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
			NominatimUserAgent: getEnv("NOMINATIM_USER_AGENT", "where2run"),
			CacheTTLHours:      getEnvAsInt("GEOCODE_CACHE_TTL_HOURS", 24),
		},
		Elevation: ElevationConfig{
			Provider: getEnv("ELEVATION_PROVIDER", "ors"),
		},
		Search: SearchConfig{
			ToleranceMeters:     getEnvAsFloat("SEARCH_TOLERANCE_METERS", 1207),
			StartFactor:         getEnvAsFloat("SEARCH_START_FACTOR", 0.85),
			FactorStep:          getEnvAsFloat("SEARCH_FACTOR_STEP", 0.05),
			LoopAttempts:        getEnvAsInt("SEARCH_LOOP_ATTEMPTS", 8),
			DirectionalAttempts: getEnvAsInt("SEARCH_DIRECTIONAL_ATTEMPTS", 5),
			ExtensionAttempts:   getEnvAsInt("SEARCH_EXTENSION_ATTEMPTS", 5),
			MetersPerPoint:      getEnvAsFloat("SEARCH_METERS_PER_POINT", 500),
			MinPoints:           getEnvAsInt("SEARCH_MIN_POINTS", 10),
			MaxPoints:           getEnvAsInt("SEARCH_MAX_POINTS", 40),
			DirectionalPauseMs:  getEnvAsInt("SEARCH_DIRECTIONAL_PAUSE_MS", 300),
		},
		Presets: PresetConfig{
			Dir: getEnv("PRESET_DIR", "data/presets"),
		},
		Training: TrainingConfig{
			PlanPath: getEnv("TRAINING_PLAN_PATH", "data/training_plan.json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Limit:         getEnvAsInt("RATE_LIMIT_LIMIT", 20),
			Burst:         getEnvAsInt("RATE_LIMIT_BURST", 5),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			RedisPrefix:   getEnv("RATE_LIMIT_REDIS_PREFIX", "ratelimit"),
		},
		Sentry: SentryConfig{
			DSN:        getEnv("SENTRY_DSN", ""),
			Release:    getEnv("SENTRY_RELEASE", ""),
			SampleRate: getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
			Debug:      getEnvAsBool("SENTRY_DEBUG", false),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvAsBool("TRACING_ENABLED", false),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
			SampleRate:     getEnvAsFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", true),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
	}

	if breakerOverrides := getEnv("CB_SERVICE_OVERRIDES", ""); breakerOverrides != "" {
		var serviceConfig map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(breakerOverrides), &serviceConfig); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = serviceConfig
	}

	if cfg.Resilience.CircuitBreaker.TimeoutSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.TimeoutSeconds = 30
	}
	if cfg.Resilience.CircuitBreaker.IntervalSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.IntervalSeconds = 60
	}
	if cfg.Resilience.CircuitBreaker.FailureThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.FailureThreshold = 5
	}
	if cfg.Resilience.CircuitBreaker.SuccessThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.SuccessThreshold = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Overpass.Endpoints) == 0 {
		errs = append(errs, errors.New("OVERPASS_ENDPOINTS must list at least one endpoint"))
	}
	switch c.Overpass.CacheBackend {
	case "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("OVERPASS_CACHE_BACKEND must be file or redis, got %q", c.Overpass.CacheBackend))
	}
	if c.Overpass.CacheBackend == "redis" && !c.Redis.Enabled {
		errs = append(errs, errors.New("OVERPASS_CACHE_BACKEND=redis requires REDIS_ENABLED=true"))
	}
	if c.Overpass.CacheTTLMinutes <= 0 {
		errs = append(errs, errors.New("OVERPASS_CACHE_TTL_MINUTES must be positive"))
	}
	switch c.Elevation.Provider {
	case "ors", "srtm":
	default:
		errs = append(errs, fmt.Errorf("ELEVATION_PROVIDER must be ors or srtm, got %q", c.Elevation.Provider))
	}
	if c.Search.ToleranceMeters <= 0 {
		errs = append(errs, errors.New("SEARCH_TOLERANCE_METERS must be positive"))
	}
	if c.Search.StartFactor <= 0 {
		errs = append(errs, errors.New("SEARCH_START_FACTOR must be positive"))
	}
	if c.Search.MinPoints <= 0 || c.Search.MaxPoints < c.Search.MinPoints {
		errs = append(errs, fmt.Errorf("SEARCH_MIN_POINTS/SEARCH_MAX_POINTS out of range: %d/%d", c.Search.MinPoints, c.Search.MaxPoints))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Limit <= 0 || c.RateLimit.WindowSeconds <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_LIMIT and RATE_LIMIT_WINDOW_SECONDS must be positive"))
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0, 1], got %v", c.Sentry.SampleRate))
	}
	if c.Search.LoopAttempts <= 0 || c.Search.DirectionalAttempts <= 0 || c.Search.ExtensionAttempts <= 0 {
		errs = append(errs, errors.New("search attempt budgets must be positive"))
	}

	return errors.Join(errs...)
}

// SettingsFor returns effective breaker settings for a specific upstream service name
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if override, ok := c.ServiceOverrides[service]; ok {
		if override.FailureThreshold > 0 {
			settings.FailureThreshold = override.FailureThreshold
		}
		if override.SuccessThreshold > 0 {
			settings.SuccessThreshold = override.SuccessThreshold
		}
		if override.TimeoutSeconds > 0 {
			settings.TimeoutSeconds = override.TimeoutSeconds
		}
		if override.IntervalSeconds > 0 {
			settings.IntervalSeconds = override.IntervalSeconds
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Timeout returns the directions request timeout.
func (c DirectionsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the per-endpoint Overpass request timeout.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long a cached Overpass response stays fresh.
func (c OverpassConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// CacheTTL returns how long geocoding results are cached.
func (c GeocodingConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Window returns the refill window.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// DirectionalPause returns the minimum spacing between directional attempts.
func (c SearchConfig) DirectionalPause() time.Duration {
	return time.Duration(c.DirectionalPauseMs) * time.Millisecond
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
