package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahearnzach3/Where2Run/internal/bootstrap"
	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/config"
	apperrors "github.com/ahearnzach3/Where2Run/pkg/errors"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/middleware"
	"github.com/ahearnzach3/Where2Run/pkg/swagger"
	"github.com/ahearnzach3/Where2Run/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName = "where2run-routes"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment, serviceName, cfg.Server.LogLevel); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting route service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	errorTracking := true
	if err := apperrors.InitSentry(apperrors.NewSentryConfig(cfg, version)); err != nil {
		errorTracking = false
		if errors.Is(err, apperrors.ErrNotConfigured) {
			logger.Info("SENTRY_DSN not set, error tracking disabled")
		} else {
			logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
		}
	} else {
		defer apperrors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Config{
			ServiceName:    serviceName,
			ServiceVersion: cfg.Tracing.ServiceVersion,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			SampleRate:     cfg.Tracing.SampleRate,
			Enabled:        true,
		}, logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized successfully")
		}
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	logger.Info("Services ready",
		zap.Strings("presets", app.Presets.Names()),
		zap.Int("overpass_endpoints", len(cfg.Overpass.Endpoints)),
		zap.String("overpass_cache", cfg.Overpass.CacheBackend),
		zap.String("elevation_provider", cfg.Elevation.Provider),
		zap.Bool("circuit_breakers", cfg.Resilience.CircuitBreaker.Enabled),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	requestTimeout := time.Duration(cfg.Server.RequestTimeout) * time.Second

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if errorTracking {
		router.Use(middleware.Sentry(), middleware.ErrorTracking())
	}
	router.Use(middleware.RequestLogger(serviceName, 10*time.Second))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))
	if cfg.Tracing.Enabled {
		router.Use(middleware.Tracing(serviceName))
	}

	router.NoRoute(common.NoRouteHandler())
	router.NoMethod(common.NoMethodHandler())
	router.HandleMethodNotAllowed = true

	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, app.ReadinessChecks()))
	router.GET("/health/deep", app.DeepChecker(version).GinHandler())
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	swagger.RegisterRoutes(router)

	api := router.Group("/api/v1")
	api.Use(middleware.Deadline(requestTimeout))
	api.Use(middleware.RequestTimeout(requestTimeout + 5*time.Second))
	app.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
