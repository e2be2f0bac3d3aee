package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/redis/go-redis/v9"
)

var retryPolicy = resilience.RetryConfig{
	MaxAttempts:       3,
	InitialBackoff:    50 * time.Millisecond,
	MaxBackoff:        time.Second,
	BackoffMultiplier: 2.0,
	EnableJitter:      true,
	RetryableChecker:  isRedisRetryable,
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"pool timeout",
	"server closed",
	"unexpected eof",
	"loading",
	"tryagain",
}

func withRetry[T any](ctx context.Context, name string, op func(context.Context) (T, error)) (T, error) {
	out, err := resilience.RetryWithName(ctx, retryPolicy, func(ctx context.Context) (interface{}, error) {
		return op(ctx)
	}, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// isRedisRetryable is true only for connection-level failures. Missing keys,
// command errors and cancellation fail fast.
func isRedisRetryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, redis.Nil),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
