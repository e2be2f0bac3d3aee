package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/logger"
	redisclient "github.com/ahearnzach3/Where2Run/pkg/redis"
	"go.uber.org/zap"
)

// ErrDisabled is returned when the manager has no backing store.
var ErrDisabled = errors.New("cache disabled")

// Manager handles caching operations with JSON serialization. A Manager
// without a client is valid and behaves as a permanent miss.
type Manager struct {
	redis redisclient.ClientInterface
}

// NewManager creates a new cache manager
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Enabled reports whether a backing store is configured.
func (m *Manager) Enabled() bool {
	return m != nil && m.redis != nil
}

// Get retrieves a cached value and unmarshals it into result
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	data, err := m.redis.GetString(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.redis.SetWithExpiration(ctx, key, string(data), ttl)
}

// GetOrSet fills result from cache, or calls fn and caches what it returns.
// Cache write failures are logged and never fail the call.
func GetOrSet[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := m.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	if m.Enabled() {
		if err := m.Set(ctx, key, value, ttl); err != nil {
			logger.WarnContext(ctx, "failed to write cache entry", zap.String("key", key), zap.Error(err))
		}
	}

	return value, nil
}

// HashKey returns prefix followed by the hex SHA-256 of data.
func HashKey(prefix, data string) string {
	sum := sha256.Sum256([]byte(data))
	return prefix + hex.EncodeToString(sum[:])
}
