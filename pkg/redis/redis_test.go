package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SetAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)
	ctx := context.Background()

	mock.ExpectSet("k", "v", time.Minute).SetVal("OK")
	mock.ExpectGet("k").SetVal("v")

	require.NoError(t, client.SetWithExpiration(ctx, "k", "v", time.Minute))
	got, err := client.GetString(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_GetMissingKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)

	mock.ExpectGet("missing").RedisNil()

	_, err := client.GetString(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNil(err))
}

func TestClient_SetDoesNotRetryCommandErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)

	mock.ExpectSet("k", "v", time.Minute).SetErr(errors.New("WRONGTYPE Operation against a key"))

	err := client.SetWithExpiration(context.Background(), "k", "v", time.Minute)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRedisRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("read: i/o timeout"), true},
		{"loading", errors.New("LOADING Redis is loading the dataset in memory"), true},
		{"command error", errors.New("WRONGTYPE"), false},
		{"missing key", redis.Nil, false},
		{"canceled", context.Canceled, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRedisRetryable(tt.err))
		})
	}
}

func TestClient_GetRetriesDroppedConnection(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)

	mock.ExpectGet("k").SetErr(errors.New("read tcp: connection reset by peer"))
	mock.ExpectGet("k").SetVal("v")

	got, err := client.GetString(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
