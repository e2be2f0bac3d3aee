package errors

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"testing"

	"github.com/ahearnzach3/Where2Run/pkg/config"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog collects events on their way out and drops them before delivery.
type eventLog struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (l *eventLog) beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *eventLog) all() []*sentry.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*sentry.Event(nil), l.events...)
}

func hubContext(t *testing.T) (context.Context, *eventLog) {
	t.Helper()
	log := &eventLog{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:        "https://public@sentry.example.com/1",
		SampleRate: 1.0,
		BeforeSend: log.beforeSend,
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())
	return sentry.SetHubOnContext(context.Background(), hub), log
}

func TestInitSentry_RequiresDSN(t *testing.T) {
	err := InitSentry(&SentryConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSentryConfig(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "production", ServiceName: "routes"},
		Sentry: config.SentryConfig{DSN: "https://k@sentry.example.com/2", SampleRate: 0.5},
	}

	sc := NewSentryConfig(cfg, "1.4.0")
	assert.Equal(t, "1.4.0", sc.Release)
	assert.Equal(t, "routes", sc.ServerName)
	assert.Equal(t, "production", sc.Environment)
	assert.Equal(t, 0.5, sc.SampleRate)

	cfg.Sentry.Release = "routes@abc123"
	assert.Equal(t, "routes@abc123", NewSentryConfig(cfg, "1.4.0").Release)
}

func TestCaptureError_UsesRequestHub(t *testing.T) {
	ctx, log := hubContext(t)

	CaptureError(ctx, stderrors.New("all overpass endpoints failed"), map[string]string{"component": "environment"})

	events := log.all()
	require.Len(t, events, 1)
	assert.Equal(t, "environment", events[0].Tags["component"])
	assert.Equal(t, sentry.LevelError, events[0].Level)
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "all overpass endpoints failed", events[0].Exception[len(events[0].Exception)-1].Value)
}

func TestCaptureError_SkipsNilAndCancellation(t *testing.T) {
	ctx, log := hubContext(t)

	assert.Nil(t, CaptureError(ctx, nil, nil))
	assert.Nil(t, CaptureError(ctx, context.Canceled, nil))
	assert.Empty(t, log.all())
}

func TestBeforeSend(t *testing.T) {
	assert.Nil(t, beforeSend(&sentry.Event{Level: sentry.LevelInfo}, nil))
	assert.Nil(t, beforeSend(&sentry.Event{Level: sentry.LevelDebug}, nil))

	event := &sentry.Event{
		Level: sentry.LevelError,
		Request: &sentry.Request{
			Cookies: "session=abc",
			Headers: map[string]string{"authorization": "Bearer x", "User-Agent": "curl"},
		},
	}
	out := beforeSend(event, nil)
	require.NotNil(t, out)
	assert.Empty(t, out.Request.Cookies)
	assert.Equal(t, "[REDACTED]", out.Request.Headers["authorization"])
	assert.Equal(t, "curl", out.Request.Headers["User-Agent"])
}

func TestShouldReportError(t *testing.T) {
	boom := stderrors.New("boom")
	tests := []struct {
		name   string
		err    error
		status int
		want   bool
	}{
		{"server error", boom, http.StatusInternalServerError, true},
		{"bad gateway", boom, http.StatusBadGateway, true},
		{"rate limited", boom, http.StatusTooManyRequests, true},
		{"validation", boom, http.StatusBadRequest, false},
		{"no route", boom, http.StatusUnprocessableEntity, false},
		{"cancelled", context.Canceled, http.StatusInternalServerError, false},
		{"nil", nil, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldReportError(tt.err, tt.status))
		})
	}
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, sentry.LevelError, LevelForStatus(http.StatusServiceUnavailable))
	assert.Equal(t, sentry.LevelWarning, LevelForStatus(http.StatusTooManyRequests))
	assert.Equal(t, sentry.LevelInfo, LevelForStatus(http.StatusNotFound))
}
