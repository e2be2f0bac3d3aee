package directions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/httpclient"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"summary": {"distance": 1234.5}},
    "geometry": {"type": "LineString", "coordinates": [[-79.99, 40.44], [-79.98, 40.45], [-79.97, 40.46]]}
  }]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *ORSProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewORSProvider(ORSConfig{APIKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
}

func TestORSProvider_Leg(t *testing.T) {
	var captured orsDirectionsRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/foot-hiking/geojson", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(lineResponse))
	})

	path, err := provider.Leg(context.Background(), LegRequest{
		Profile: ProfileHiking,
		From:    geo.Point{Lat: 40.44, Lng: -79.99},
		To:      geo.Point{Lat: 40.46, Lng: -79.97},
		Via:     []geo.Point{{Lat: 40.45, Lng: -79.98}},
	})
	require.NoError(t, err)

	// request goes out as [lon, lat] in From, Via, To order
	assert.Equal(t, [][2]float64{{-79.99, 40.44}, {-79.98, 40.45}, {-79.97, 40.46}}, captured.Coordinates)
	assert.Nil(t, captured.Options)

	// response comes back as (lat, lng)
	require.Len(t, path, 3)
	assert.Equal(t, geo.Point{Lat: 40.44, Lng: -79.99}, path[0])
	assert.Equal(t, geo.Point{Lat: 40.46, Lng: -79.97}, path[2])
}

func TestORSProvider_RoundTrip(t *testing.T) {
	var captured orsDirectionsRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/foot-walking/geojson", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(lineResponse))
	})

	path, err := provider.RoundTrip(context.Background(), RoundTripRequest{
		Origin:       geo.Point{Lat: 40.44, Lng: -79.99},
		LengthMeters: 8000,
		Points:       16,
		Seed:         42,
	})
	require.NoError(t, err)
	assert.Len(t, path, 3)

	require.Len(t, captured.Coordinates, 1)
	assert.Equal(t, [2]float64{-79.99, 40.44}, captured.Coordinates[0])
	require.NotNil(t, captured.Options)
	require.NotNil(t, captured.Options.RoundTrip)
	assert.Equal(t, 8000.0, captured.Options.RoundTrip.Length)
	assert.Equal(t, 16, captured.Options.RoundTrip.Points)
	assert.Equal(t, 42, captured.Options.RoundTrip.Seed)
}

func TestORSProvider_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		checkErr func(t *testing.T, err error)
	}{
		{
			name:   "no features",
			status: http.StatusOK,
			body:   `{"type":"FeatureCollection","features":[]}`,
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyRoute)
			},
		},
		{
			name:   "upstream rejects",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":2004,"message":"Route could not be found"}}`,
			checkErr: func(t *testing.T, err error) {
				var httpErr *httpclient.HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
			},
		},
		{
			name:   "garbage body",
			status: http.StatusOK,
			body:   `not json`,
			checkErr: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "parse")
			},
		},
		{
			name:   "point geometry",
			status: http.StatusOK,
			body:   `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]}`,
			checkErr: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "Point")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			path, err := provider.Leg(context.Background(), LegRequest{
				From: geo.Point{Lat: 1, Lng: 2},
				To:   geo.Point{Lat: 3, Lng: 4},
			})
			require.Error(t, err)
			assert.Nil(t, path)
			tt.checkErr(t, err)
		})
	}
}

type stubProvider struct {
	calls atomic.Int32
	err   error
	path  geo.Path
}

func (s *stubProvider) Leg(ctx context.Context, req LegRequest) (geo.Path, error) {
	s.calls.Add(1)
	return s.path, s.err
}

func (s *stubProvider) RoundTrip(ctx context.Context, req RoundTripRequest) (geo.Path, error) {
	s.calls.Add(1)
	return s.path, s.err
}

func TestResilientProvider_PassesThrough(t *testing.T) {
	stub := &stubProvider{path: geo.Path{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}}
	provider := NewResilientProvider(stub, nil, "")

	path, err := provider.RoundTrip(context.Background(), RoundTripRequest{LengthMeters: 1000})
	require.NoError(t, err)
	assert.Equal(t, stub.path, path)
}

func TestResilientProvider_BreakerOpens(t *testing.T) {
	stub := &stubProvider{err: errors.New("quota exceeded")}
	breaker := resilience.NewCircuitBreaker(resilience.BuildSettings("directions-test", 2, 1, 60, 60), nil)
	provider := NewResilientProvider(stub, breaker, "openrouteservice")

	for i := 0; i < 2; i++ {
		_, err := provider.Leg(context.Background(), LegRequest{})
		assert.EqualError(t, err, "quota exceeded")
	}

	_, err := provider.Leg(context.Background(), LegRequest{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestLegRequest_Waypoints(t *testing.T) {
	req := LegRequest{
		From: geo.Point{Lat: 1},
		To:   geo.Point{Lat: 3},
		Via:  []geo.Point{{Lat: 2}},
	}
	assert.Equal(t, []geo.Point{{Lat: 1}, {Lat: 2}, {Lat: 3}}, req.Waypoints())
}
