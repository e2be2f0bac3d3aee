package environment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pittsburgh = geo.Point{Lat: 40.4406, Lng: -79.9959}

type fakeOverpass struct {
	server *httptest.Server
	hits   atomic.Int32
	lastQ  atomic.Value
}

func newFakeOverpass(t *testing.T, status int, body string) *fakeOverpass {
	t.Helper()
	f := &fakeOverpass{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.lastQ.Store(r.URL.Query().Get("data"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestClassifier(t *testing.T, endpoints []string, opts ...Option) (*Classifier, *FileStore) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	c := NewClassifier(Config{
		Endpoints: endpoints,
		Timeout:   2 * time.Second,
		CacheTTL:  time.Hour,
	}, store, opts...)
	return c, store
}

func TestQuery_Render(t *testing.T) {
	text, ok := Query{Mode: ModeUrban, Point: pittsburgh, RadiusMeters: 300}.Render()
	require.True(t, ok)
	assert.Equal(t,
		`[out:json][timeout:25];(way["highway"~"primary|secondary|tertiary"](around:300,40.4406,-79.9959););out center;`,
		text)

	text, ok = Query{Mode: ModeShaded, Point: pittsburgh}.Render()
	require.True(t, ok)
	assert.Contains(t, text, `way["natural"="wood"](around:300,40.4406,-79.9959);`+"\n"+`way["landuse"="forest"](around:300,40.4406,-79.9959);`)

	_, ok = Query{Mode: "beach", Point: pittsburgh}.Render()
	assert.False(t, ok)
}

func TestCacheKey_StableAndDistinct(t *testing.T) {
	a, _ := Query{Mode: ModeTrail, Point: pittsburgh, RadiusMeters: 300}.Render()
	b, _ := Query{Mode: ModeTrail, Point: pittsburgh, RadiusMeters: 300}.Render()
	c, _ := Query{Mode: ModeTrail, Point: pittsburgh, RadiusMeters: 301}.Render()

	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
	assert.Len(t, CacheKey(a), 64)
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" Trail ")
	assert.True(t, ok)
	assert.Equal(t, ModeTrail, m)

	_, ok = ParseMode("desert")
	assert.False(t, ok)
}

func TestClassifier_UrbanZeroElementsIsNoMatch(t *testing.T) {
	upstream := newFakeOverpass(t, http.StatusOK, `{"elements":[]}`)
	c, _ := newTestClassifier(t, []string{upstream.server.URL})

	assert.Equal(t, NoMatch, c.Classify(context.Background(), pittsburgh, ModeUrban, 300))
	assert.False(t, c.Matches(context.Background(), pittsburgh, ModeUrban, 300))
}

func TestClassifier_MatchSendsRenderedQuery(t *testing.T) {
	upstream := newFakeOverpass(t, http.StatusOK, `{"elements":[{"type":"way","id":1}]}`)
	c, _ := newTestClassifier(t, []string{upstream.server.URL})

	assert.True(t, c.Matches(context.Background(), pittsburgh, ModeTrail, 0))

	want, _ := Query{Mode: ModeTrail, Point: pittsburgh, RadiusMeters: DefaultRadiusMeters}.Render()
	assert.Equal(t, want, upstream.lastQ.Load())
}

func TestClassifier_UnknownModeSkipsNetwork(t *testing.T) {
	upstream := newFakeOverpass(t, http.StatusOK, `{"elements":[{"id":1}]}`)
	c, _ := newTestClassifier(t, []string{upstream.server.URL})

	assert.Equal(t, NoMatch, c.Classify(context.Background(), pittsburgh, Mode("volcano"), 300))
	assert.Equal(t, int32(0), upstream.hits.Load())
}

func TestClassifier_CacheWithinTTLAndRefreshAfter(t *testing.T) {
	upstream := newFakeOverpass(t, http.StatusOK, `{"elements":[{"id":1}]}`)

	now := time.Now()
	clock := func() time.Time { return now }
	c, _ := newTestClassifier(t, []string{upstream.server.URL}, WithClock(clock))
	ctx := context.Background()

	first := c.Classify(ctx, pittsburgh, ModeScenic, 300)
	second := c.Classify(ctx, pittsburgh, ModeScenic, 300)
	assert.Equal(t, Match, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), upstream.hits.Load(), "second lookup within TTL must be served from cache")

	now = now.Add(2 * time.Hour)
	assert.Equal(t, Match, c.Classify(ctx, pittsburgh, ModeScenic, 300))
	assert.Equal(t, int32(2), upstream.hits.Load(), "lookup after TTL must refetch")
}

func TestClassifier_FallsThroughEndpoints(t *testing.T) {
	down := newFakeOverpass(t, http.StatusTooManyRequests, `rate limited`)
	garbled := newFakeOverpass(t, http.StatusOK, `<html>busy</html>`)
	healthy := newFakeOverpass(t, http.StatusOK, `{"elements":[{"id":7}]}`)

	c, _ := newTestClassifier(t, []string{down.server.URL, garbled.server.URL, healthy.server.URL})

	assert.Equal(t, Match, c.Classify(context.Background(), pittsburgh, ModeSuburban, 300))
	assert.Equal(t, int32(1), down.hits.Load())
	assert.Equal(t, int32(1), garbled.hits.Load())
	assert.Equal(t, int32(1), healthy.hits.Load())
}

func TestClassifier_AllEndpointsFailIsIndeterminate(t *testing.T) {
	a := newFakeOverpass(t, http.StatusGatewayTimeout, `timeout`)
	b := newFakeOverpass(t, http.StatusInternalServerError, `boom`)
	c, store := newTestClassifier(t, []string{a.server.URL, b.server.URL})

	var reported []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:        "https://public@sentry.example.com/1",
		SampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			reported = append(reported, event)
			return nil
		},
	})
	require.NoError(t, err)
	ctx := sentry.SetHubOnContext(context.Background(), sentry.NewHub(client, sentry.NewScope()))

	assert.Equal(t, Indeterminate, c.Classify(ctx, pittsburgh, ModeTrail, 300))
	assert.False(t, c.Matches(ctx, pittsburgh, ModeTrail, 300))
	require.Len(t, reported, 2)
	assert.Equal(t, "environment", reported[0].Tags["component"])
	assert.Equal(t, string(ModeTrail), reported[0].Tags["mode"])

	text, _ := Query{Mode: ModeTrail, Point: pittsburgh, RadiusMeters: 300}.Render()
	_, _, err = store.Load(ctx, CacheKey(text))
	assert.ErrorIs(t, err, ErrCacheMiss, "failures must not be cached")
}

func TestClassifier_FetchWithoutEndpoints(t *testing.T) {
	c := NewClassifier(Config{}, nil)
	_, err := c.Fetch(context.Background(), "[out:json];")
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "match", Match.String())
	assert.Equal(t, "no_match", NoMatch.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
}
