package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRedisClient is an in-memory redisclient.ClientInterface.
type MockRedisClient struct {
	mu       sync.RWMutex
	data     map[string]string
	setError error
	sets     int
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{data: make(map[string]string)}
}

func (m *MockRedisClient) GetString(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (m *MockRedisClient) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value.(string)
	return nil
}

func (m *MockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *MockRedisClient) Close() error                   { return nil }

type place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
}

func TestManager_SetGet(t *testing.T) {
	m := NewManager(NewMockRedisClient())
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "p", place{Name: "park", Lat: 1.5}, time.Hour))

	var got place
	require.NoError(t, m.Get(ctx, "p", &got))
	assert.Equal(t, place{Name: "park", Lat: 1.5}, got)

	err := m.Get(ctx, "q", &got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestGetOrSet(t *testing.T) {
	client := NewMockRedisClient()
	m := NewManager(client)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) ([]place, error) {
		calls++
		return []place{{Name: "a"}}, nil
	}

	first, err := GetOrSet(ctx, m, "k", time.Hour, fetch)
	require.NoError(t, err)
	second, err := GetOrSet(ctx, m, "k", time.Hour, fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGetOrSet_WriteFailureIsNotFatal(t *testing.T) {
	client := NewMockRedisClient()
	client.setError = errors.New("read only replica")
	m := NewManager(client)

	got, err := GetOrSet(context.Background(), m, "k", time.Hour, func(context.Context) (string, error) {
		return "value", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, 1, client.sets)
}

func TestGetOrSet_DisabledManager(t *testing.T) {
	var m *Manager
	got, err := GetOrSet(context.Background(), m, "k", time.Hour, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.ErrorIs(t, m.Get(context.Background(), "k", &got), ErrDisabled)
}

func TestHashKey(t *testing.T) {
	a := HashKey("overpass:", "query-a")
	b := HashKey("overpass:", "query-a")
	c := HashKey("overpass:", "query-b")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("overpass:")+64)
}
