package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/httpclient"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound is returned when a query matches no place.
	ErrNotFound = errors.New("place not found")
	// ErrNotConfigured is returned by a provider missing its credentials.
	ErrNotConfigured = errors.New("geocoding provider not configured")
)

// Place is a named location.
type Place struct {
	Name  string    `json:"name"`
	Point geo.Point `json:"point"`
}

// Geocoder resolves free text to a single point.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
}

// Autocompleter suggests places while the user types.
type Autocompleter interface {
	Suggest(ctx context.Context, query string) ([]Place, error)
}

const (
	mapboxBaseURL     = "https://api.mapbox.com"
	mapboxPlaces      = "/geocoding/v5/mapbox.places/%s.json"
	SuggestionLimit   = 5
	nominatimBaseURL  = "https://nominatim.openstreetmap.org"
	nominatimSearch   = "/search"
	nominatimAttempts = 3
	nominatimDelay    = 2 * time.Second
)

// Mapbox implements Geocoder and Autocompleter over the Mapbox places API.
type Mapbox struct {
	token  string
	client *httpclient.Client
}

// NewMapbox creates a Mapbox client. An empty baseURL uses the public API.
func NewMapbox(token, baseURL string, timeout time.Duration) *Mapbox {
	if baseURL == "" {
		baseURL = mapboxBaseURL
	}
	return &Mapbox{token: token, client: httpclient.NewClient(baseURL, timeout)}
}

// Suggest implements Autocompleter.
func (m *Mapbox) Suggest(ctx context.Context, query string) ([]Place, error) {
	return m.places(ctx, query, url.Values{
		"autocomplete": {"true"},
		"limit":        {strconv.Itoa(SuggestionLimit)},
	})
}

// Geocode implements Geocoder.
func (m *Mapbox) Geocode(ctx context.Context, query string) (Place, error) {
	places, err := m.places(ctx, query, url.Values{"limit": {"1"}})
	if err != nil {
		return Place{}, err
	}
	if len(places) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return places[0], nil
}

func (m *Mapbox) places(ctx context.Context, query string, params url.Values) ([]Place, error) {
	if m.token == "" {
		return nil, fmt.Errorf("mapbox: %w", ErrNotConfigured)
	}
	params.Set("access_token", m.token)

	resp, err := m.client.GetWithQuery(ctx, fmt.Sprintf(mapboxPlaces, url.PathEscape(query)), params, nil)
	if err != nil {
		return nil, fmt.Errorf("mapbox places: %w", err)
	}
	return parseMapbox(resp)
}

// parseMapbox reads features[].place_name and features[].center ([lon, lat]).
func parseMapbox(data []byte) ([]Place, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("mapbox places: invalid json")
	}

	var places []Place
	gjson.GetBytes(data, "features").ForEach(func(_, f gjson.Result) bool {
		center := f.Get("center").Array()
		if len(center) < 2 {
			return true
		}
		places = append(places, Place{
			Name:  f.Get("place_name").String(),
			Point: geo.Point{Lat: center[1].Float(), Lng: center[0].Float()},
		})
		return true
	})
	return places, nil
}

// Nominatim implements Geocoder over the OpenStreetMap Nominatim API.
type Nominatim struct {
	client *httpclient.Client
}

// DefaultNominatimRetry makes three attempts two seconds apart.
func DefaultNominatimRetry() resilience.RetryConfig {
	return resilience.FixedRetryConfig(nominatimAttempts, nominatimDelay)
}

// NewNominatim creates a Nominatim client. Nominatim requires a descriptive
// user agent.
func NewNominatim(baseURL, userAgent string, timeout time.Duration, retry resilience.RetryConfig) *Nominatim {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	return &Nominatim{
		client: httpclient.NewClient(baseURL, timeout,
			httpclient.WithUserAgent(userAgent),
			httpclient.WithRetry(retry),
		),
	}
}

// Geocode implements Geocoder.
func (n *Nominatim) Geocode(ctx context.Context, query string) (Place, error) {
	resp, err := n.client.GetWithQuery(ctx, nominatimSearch, url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}, nil)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim search: %w", err)
	}

	if !gjson.ValidBytes(resp) {
		return Place{}, errors.New("nominatim search: invalid json")
	}
	first := gjson.GetBytes(resp, "0")
	if !first.Exists() {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	lat, errLat := strconv.ParseFloat(first.Get("lat").String(), 64)
	lng, errLng := strconv.ParseFloat(first.Get("lon").String(), 64)
	if errLat != nil || errLng != nil {
		return Place{}, fmt.Errorf("nominatim search: bad coordinates %q,%q", first.Get("lat").String(), first.Get("lon").String())
	}
	return Place{
		Name:  strings.TrimSpace(first.Get("display_name").String()),
		Point: geo.Point{Lat: lat, Lng: lng},
	}, nil
}
