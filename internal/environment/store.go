package environment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/cache"
	redisclient "github.com/ahearnzach3/Where2Run/pkg/redis"
)

// ErrCacheMiss is returned by a Store that has no entry for a key.
var ErrCacheMiss = errors.New("environment cache miss")

// Store persists raw Overpass responses by query hash. Save replaces any
// previous entry; concurrent writers for one key are last-write-wins.
type Store interface {
	Load(ctx context.Context, key string) (body []byte, fetchedAt time.Time, err error)
	Save(ctx context.Context, key string, body []byte) error
}

// FileStore keeps one <key>.json file per query in dir and uses the file's
// modification time as the fetch time.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	p := s.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	body, err := os.ReadFile(p)
	if err != nil {
		return nil, time.Time{}, err
	}
	return body, info.ModTime(), nil
}

// Save implements Store. The file is written beside its final name and
// renamed so readers never see a partial body.
func (s *FileStore) Save(ctx context.Context, key string, body []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// RedisStore keeps entries in Redis with the TTL as key expiry.
type RedisStore struct {
	cache  *cache.Manager
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type redisEntry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redisclient.ClientInterface, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		cache:  cache.NewManager(client),
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	var entry redisEntry
	if err := s.cache.Get(ctx, s.prefix+key, &entry); err != nil {
		if redisclient.IsNil(err) {
			return nil, time.Time{}, ErrCacheMiss
		}
		return nil, time.Time{}, err
	}
	return entry.Body, entry.FetchedAt, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, body []byte) error {
	entry := redisEntry{FetchedAt: s.now().UTC(), Body: json.RawMessage(body)}
	return s.cache.Set(ctx, s.prefix+key, entry, s.ttl)
}
