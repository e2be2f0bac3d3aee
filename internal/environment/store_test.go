package environment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/ahearnzach3/Where2Run/pkg/redis"
)

func TestFileStore_SaveLoadOverwrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Save(ctx, "abc", []byte(`{"elements":[]}`)))
	require.NoError(t, store.Save(ctx, "abc", []byte(`{"elements":[{"id":1}]}`)))

	body, fetchedAt, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"elements":[{"id":1}]}`, string(body))
	assert.WithinDuration(t, time.Now(), fetchedAt, time.Minute)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "abc.json", entries[0].Name())
}

func TestFileStore_UsesModTime(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", []byte(`{"elements":[]}`)))
	past := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), past, past))

	_, fetchedAt, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.WithinDuration(t, past, fetchedAt, time.Second)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(redisclient.Wrap(db), "overpass:", time.Hour)
	fixed := time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	envelope := `{"fetched_at":"2025-06-02T07:30:00Z","body":{"elements":[{"id":1}]}}`
	mock.ExpectSet("overpass:k1", envelope, time.Hour).SetVal("OK")
	mock.ExpectGet("overpass:k1").SetVal(envelope)

	require.NoError(t, store.Save(ctx, "k1", []byte(`{"elements":[{"id":1}]}`)))

	body, fetchedAt, err := store.Load(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"elements":[{"id":1}]}`, string(body))
	assert.True(t, fixed.Equal(fetchedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(redisclient.Wrap(db), "overpass:", time.Hour)

	mock.ExpectGet("overpass:missing").RedisNil()

	_, _, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStore_BackendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(redisclient.Wrap(db), "overpass:", time.Hour)

	mock.ExpectGet("overpass:k").SetErr(errors.New("WRONGTYPE"))

	_, _, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
