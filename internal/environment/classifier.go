package environment

import (
	"context"
	"errors"
	"net/url"
	"time"

	apperrors "github.com/ahearnzach3/Where2Run/pkg/errors"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/httpclient"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/ahearnzach3/Where2Run/pkg/tracing"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const tracerName = "where2run/environment"

// ErrAllEndpointsFailed is returned by Fetch when no endpoint produced a
// usable response.
var ErrAllEndpointsFailed = errors.New("all overpass endpoints failed")

var errUnparseable = errors.New("unparseable overpass response")

// Verdict is the outcome of one classification.
type Verdict int

const (
	NoMatch Verdict = iota
	Match
	// Indeterminate means no endpoint answered; callers treat it as NoMatch.
	Indeterminate
)

func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case Indeterminate:
		return "indeterminate"
	default:
		return "no_match"
	}
}

// Config configures a Classifier.
type Config struct {
	Endpoints    []string
	Timeout      time.Duration
	RadiusMeters int
	CacheTTL     time.Duration
}

// BreakerFactory builds a circuit breaker for one endpoint. It may return nil.
type BreakerFactory func(endpoint string) *resilience.CircuitBreaker

// Option customises a Classifier.
type Option func(*Classifier)

// WithBreakers installs one breaker per endpoint.
func WithBreakers(factory BreakerFactory) Option {
	return func(c *Classifier) {
		for i := range c.endpoints {
			c.endpoints[i].breaker = factory(c.endpoints[i].url)
		}
	}
}

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

type endpoint struct {
	url     string
	client  *httpclient.Client
	breaker *resilience.CircuitBreaker
}

// Classifier answers "are there features of this kind nearby?" using
// Overpass, with a TTL cache in front.
type Classifier struct {
	endpoints []endpoint
	store     Store
	ttl       time.Duration
	radius    int
	now       func() time.Time
	inflight  singleflight.Group
}

// NewClassifier creates a classifier over the given endpoints, tried in order.
func NewClassifier(cfg Config, store Store, opts ...Option) *Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	c := &Classifier{
		store:  store,
		ttl:    ttl,
		radius: radius,
		now:    time.Now,
	}
	for _, u := range cfg.Endpoints {
		c.endpoints = append(c.endpoints, endpoint{
			url:    u,
			client: httpclient.NewClient(u, timeout),
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Matches reports whether features for mode exist within radius of point.
// Indeterminate results count as no match.
func (c *Classifier) Matches(ctx context.Context, point geo.Point, mode Mode, radius int) bool {
	return c.Classify(ctx, point, mode, radius) == Match
}

// Classify runs the lookup and returns the full verdict. radius <= 0 uses
// the configured default.
func (c *Classifier) Classify(ctx context.Context, point geo.Point, mode Mode, radius int) Verdict {
	if radius <= 0 {
		radius = c.radius
	}

	query := Query{Mode: mode, Point: point, RadiusMeters: radius}
	text, ok := query.Render()
	if !ok {
		logger.WarnContext(ctx, "unknown environment mode", zap.String("mode", string(mode)))
		verdictsTotal.WithLabelValues(string(mode), NoMatch.String()).Inc()
		return NoMatch
	}
	key := CacheKey(text)

	if body, ok := c.cached(ctx, key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return c.record(mode, verdictOf(body))
	}
	cacheLookups.WithLabelValues("miss").Inc()

	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		return c.Fetch(ctx, text)
	})
	if err != nil {
		logger.WarnContext(ctx, "environment lookup indeterminate",
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		if errors.Is(err, ErrAllEndpointsFailed) {
			apperrors.CaptureError(ctx, err, map[string]string{"component": "environment", "mode": string(mode)})
		}
		return c.record(mode, Indeterminate)
	}

	body := result.([]byte)
	if c.store != nil {
		if err := c.store.Save(ctx, key, body); err != nil {
			logger.WarnContext(ctx, "failed to cache environment response", zap.String("key", key), zap.Error(err))
		}
	}

	return c.record(mode, verdictOf(body))
}

func (c *Classifier) record(mode Mode, v Verdict) Verdict {
	verdictsTotal.WithLabelValues(string(mode), v.String()).Inc()
	return v
}

func verdictOf(body []byte) Verdict {
	if gjson.GetBytes(body, "elements.#").Int() > 0 {
		return Match
	}
	return NoMatch
}

// parseable reports whether body is JSON carrying an elements collection.
func parseable(body []byte) bool {
	return gjson.ValidBytes(body) && gjson.GetBytes(body, "elements").IsArray()
}

// cached returns a fresh, parseable cache entry for key.
func (c *Classifier) cached(ctx context.Context, key string) ([]byte, bool) {
	var body []byte
	if c.store == nil {
		return nil, false
	}

	hit, _ := tracing.TraceCacheLookup(ctx, tracerName, key, func(ctx context.Context) (bool, error) {
		raw, fetchedAt, err := c.store.Load(ctx, key)
		if err != nil {
			if errors.Is(err, ErrCacheMiss) {
				return false, nil
			}
			logger.WarnContext(ctx, "environment cache read failed", zap.String("key", key), zap.Error(err))
			return false, err
		}
		if c.now().Sub(fetchedAt) >= c.ttl {
			return false, nil
		}
		if !parseable(raw) {
			return false, nil
		}
		body = raw
		return true, nil
	})
	return body, hit
}

// Fetch sends the rendered query to each endpoint in order and returns the
// first HTTP-ok body that parses as an Overpass response.
func (c *Classifier) Fetch(ctx context.Context, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("data", query)

	for _, ep := range c.endpoints {
		var body []byte
		err := tracing.TraceExternalAPI(ctx, tracerName, "overpass", "interpreter", func(ctx context.Context) error {
			result, err := ep.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
				raw, err := ep.client.GetWithQuery(ctx, "", params, nil)
				if err != nil {
					return nil, err
				}
				if !parseable(raw) {
					return nil, errUnparseable
				}
				return raw, nil
			})
			if err != nil {
				return err
			}
			body = result.([]byte)
			return nil
		})
		if err == nil {
			return body, nil
		}

		endpointFailures.WithLabelValues(ep.url).Inc()
		logger.WarnContext(ctx, "overpass endpoint failed",
			zap.String("endpoint", ep.url),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, ErrAllEndpointsFailed
}
