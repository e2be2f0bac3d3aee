package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"go.uber.org/zap"
)

// RetryConfig defines the configuration for retry behavior
type RetryConfig struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// EnableJitter applies full jitter to each backoff.
	EnableJitter bool
	// RetryableErrors restricts retries to errors matching one of these.
	RetryableErrors []error
	// RetryableChecker takes precedence over RetryableErrors when set.
	RetryableChecker func(error) bool
}

// DefaultRetryConfig is used for OpenRouteService calls: three attempts with
// jittered exponential backoff from 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// FixedRetryConfig retries up to attempts times with a constant delay and no
// jitter.
func FixedRetryConfig(attempts int, delay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    delay,
		MaxBackoff:        delay,
		BackoffMultiplier: 1.0,
	}
}

// Retry is RetryWithName without an operation label.
func Retry(ctx context.Context, config RetryConfig, operation Operation) (interface{}, error) {
	return RetryWithName(ctx, config, operation, "unknown")
}

// RetryWithName runs operation until it succeeds, returns a non-retryable
// error, exhausts MaxAttempts or ctx ends. Every outcome is recorded under
// operationName.
func RetryWithName(ctx context.Context, config RetryConfig, operation Operation, operationName string) (interface{}, error) {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	started := time.Now()
	finish := func(attempts int, ok bool) {
		recordRetryOperation(operationName, time.Since(started).Seconds(), attempts, ok)
	}
	log := logger.WithContext(ctx).With(zap.String("operation", operationName))

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			finish(attempt, false)
			return nil, err
		}

		result, err := operation(ctx)
		recordRetryAttempt(operationName, err == nil)
		if err == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retry", zap.Int("attempt", attempt))
			}
			finish(attempt, true)
			return result, nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			log.Debug("error is not retryable", zap.Int("attempt", attempt), zap.Error(err))
			finish(attempt, false)
			return nil, err
		}
		if attempt == config.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt, config)
		recordRetryBackoff(operationName, backoff.Seconds())
		log.Info("retrying operation after backoff",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", config.MaxAttempts),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := sleep(ctx, backoff); err != nil {
			finish(attempt+1, false)
			return nil, err
		}
	}

	log.Warn("operation failed after all retry attempts", zap.Int("attempts", config.MaxAttempts), zap.Error(lastErr))
	finish(config.MaxAttempts, false)
	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateBackoff returns initial * multiplier^(attempt-1), capped at
// MaxBackoff. With jitter the result is uniform in [0, backoff).
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	multiplier := config.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	backoff := float64(config.InitialBackoff) * math.Pow(multiplier, float64(attempt-1))
	if config.MaxBackoff > 0 {
		backoff = math.Min(backoff, float64(config.MaxBackoff))
	}

	d := time.Duration(backoff)
	if config.EnableJitter && d > 0 {
		d = rand.N(d)
	}
	return d
}

func shouldRetry(err error, config RetryConfig) bool {
	switch {
	case err == nil:
		return false
	case config.RetryableChecker != nil:
		return config.RetryableChecker(err)
	case len(config.RetryableErrors) > 0:
		for _, target := range config.RetryableErrors {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrCircuitOpen)
}

// IsRetryableHTTPStatus reports whether an upstream status code is transient:
// 408, 429 and the 5xx gateway family.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
