package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter_BucketDrainsAndRefills(t *testing.T) {
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(Rule{Limit: 2, Burst: 1, Window: time.Minute})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := l.Allow(ctx, "runner")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 2, first.Remaining)
	assert.Equal(t, 2, first.Limit)

	for i := 0; i < 2; i++ {
		res, _ := l.Allow(ctx, "runner")
		assert.True(t, res.Allowed)
	}

	denied, err := l.Allow(ctx, "runner")
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Zero(t, denied.Remaining)
	assert.Equal(t, 30*time.Second, denied.RetryAfter)

	other, _ := l.Allow(ctx, "someone-else")
	assert.True(t, other.Allowed)

	now = now.Add(31 * time.Second)
	again, _ := l.Allow(ctx, "runner")
	assert.True(t, again.Allowed)
}

func TestLocalLimiter_PrunesIdleBuckets(t *testing.T) {
	now := time.Now()
	l := NewLocalLimiter(Rule{Limit: 1, Window: time.Second})
	l.now = func() time.Time { return now }

	for i := 0; i <= pruneAbove; i++ {
		_, _ = l.Allow(context.Background(), strconv.Itoa(i))
	}
	now = now.Add(time.Minute)
	_, _ = l.Allow(context.Background(), "fresh")

	assert.Len(t, l.buckets, 1)
}

func TestRedisLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLimiter(db, "ratelimit", Rule{Limit: 20, Burst: 5, Window: time.Minute})
	now := time.UnixMilli(1_700_000_000_000)
	l.now = func() time.Time { return now }

	key := []string{"ratelimit:/api/v1/routes/loop:10.0.0.1"}
	refill := strconv.FormatFloat(20.0/60000, 'f', 10, 64)

	mock.ExpectEvalSha(l.script.Hash(), key, now.UnixMilli(), refill, 25, int64(120000)).
		SetVal([]interface{}{int64(1), int64(24), int64(0)})
	mock.ExpectEvalSha(l.script.Hash(), key, now.UnixMilli(), refill, 25, int64(120000)).
		SetVal([]interface{}{int64(0), int64(0), int64(1500)})
	mock.ExpectEvalSha(l.script.Hash(), key, now.UnixMilli(), refill, 25, int64(120000)).
		SetErr(errors.New("connection refused"))

	res, err := l.Allow(context.Background(), "/api/v1/routes/loop:10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, Result{Allowed: true, Remaining: 24, Limit: 20}, res)

	res, err = l.Allow(context.Background(), "/api/v1/routes/loop:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1500*time.Millisecond, res.RetryAfter)

	_, err = l.Allow(context.Background(), "/api/v1/routes/loop:10.0.0.1")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
