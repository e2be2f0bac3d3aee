package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/config"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// ClientInterface is the string key/value surface shared by the environment
// store, the geocoding cache and the readiness probe.
type ClientInterface interface {
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

var _ ClientInterface = (*Client)(nil)

// Client is a go-redis client whose reads and writes retry on dropped
// connections.
type Client struct {
	*redis.Client
}

// NewRedisClient dials Redis and fails unless it answers PING within
// connectTimeout.
func NewRedisClient(cfg *config.RedisConfig) (*Client, error) {
	client := Wrap(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = client.Client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return client, nil
}

// Wrap adapts an existing go-redis client, e.g. one returned by redismock.
func Wrap(client *redis.Client) *Client {
	return &Client{Client: client}
}

// IsNil reports whether err signals a missing key.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_, err := withRetry(ctx, "redis.set", func(ctx context.Context) (string, error) {
		return c.Set(ctx, key, value, expiration).Result()
	})
	return err
}

// GetString returns redis.Nil for a missing key; see IsNil.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	return withRetry(ctx, "redis.get", func(ctx context.Context) (string, error) {
		return c.Get(ctx, key).Result()
	})
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
