// Package errors reports unexpected failures to Sentry. Every capture is a
// no-op until InitSentry succeeds.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/config"
	"github.com/getsentry/sentry-go"
)

// ErrNotConfigured is returned by InitSentry when no DSN is set.
var ErrNotConfigured = stderrors.New("sentry DSN is not configured")

// SentryConfig holds configuration for Sentry integration
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	ServerName  string
	SampleRate  float64
	Debug       bool
}

// NewSentryConfig builds the client settings for service from cfg. release
// falls back to version when SENTRY_RELEASE is unset.
func NewSentryConfig(cfg *config.Config, version string) *SentryConfig {
	release := cfg.Sentry.Release
	if release == "" {
		release = version
	}
	return &SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Server.Environment,
		Release:     release,
		ServerName:  cfg.Server.ServiceName,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}
}

func (c *SentryConfig) clientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		ServerName:       c.ServerName,
		SampleRate:       c.SampleRate,
		Debug:            c.Debug,
		AttachStacktrace: true,
		BeforeSend:       beforeSend,
	}
}

// InitSentry installs the global Sentry client.
func InitSentry(cfg *SentryConfig) error {
	if cfg.DSN == "" {
		return ErrNotConfigured
	}
	if err := sentry.Init(cfg.clientOptions()); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key", "X-Auth-Token"}

// beforeSend drops info and debug events and redacts credentials.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
		return nil
	}
	if req := event.Request; req != nil {
		req.Cookies = ""
		for name := range req.Headers {
			for _, sensitive := range sensitiveHeaders {
				if strings.EqualFold(name, sensitive) {
					req.Headers[name] = "[REDACTED]"
				}
			}
		}
	}
	return event
}

// hubFor returns the request-scoped hub when ctx carries one.
func hubFor(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}
	return sentry.CurrentHub()
}

// CaptureError reports err with tags. Cancellation is the caller going away
// and is never reported.
func CaptureError(ctx context.Context, err error, tags map[string]string) *sentry.EventID {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return nil
	}

	hub := hubFor(ctx)
	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTags(tags)
		id = hub.CaptureException(err)
	})
	return id
}

// ShouldReportError reports whether a request that ended with err and
// statusCode is an unexpected failure. Client errors other than 429 are not.
func ShouldReportError(err error, statusCode int) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}
	if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError &&
		statusCode != http.StatusTooManyRequests {
		return false
	}
	return true
}

// LevelForStatus maps an HTTP status code to a Sentry severity.
func LevelForStatus(statusCode int) sentry.Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return sentry.LevelError
	case statusCode == http.StatusTooManyRequests:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}
