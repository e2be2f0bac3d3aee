package directions

import (
	"context"
	"fmt"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/httpclient"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const (
	orsBaseURL            = "https://api.openrouteservice.org"
	orsDirectionsEndpoint = "/v2/directions/%s/geojson"
)

// ORSConfig configures the OpenRouteService client.
type ORSConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	MaxRetries     int
}

// ORSProvider implements Provider against the OpenRouteService v2 API.
type ORSProvider struct {
	apiKey string
	client *httpclient.Client
}

// NewORSProvider creates a new OpenRouteService provider
func NewORSProvider(config ORSConfig) *ORSProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = orsBaseURL
	}

	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 20
	}

	var opts []httpclient.Option
	if config.MaxRetries > 0 {
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = config.MaxRetries + 1
		opts = append(opts, httpclient.WithRetry(retry))
	}

	return &ORSProvider{
		apiKey: config.APIKey,
		client: httpclient.NewClient(baseURL, time.Duration(timeout)*time.Second, opts...),
	}
}

type orsRoundTrip struct {
	Length float64 `json:"length"`
	Points int     `json:"points"`
	Seed   int     `json:"seed"`
}

type orsOptions struct {
	RoundTrip *orsRoundTrip `json:"round_trip,omitempty"`
}

type orsDirectionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Options     *orsOptions  `json:"options,omitempty"`
}

// Leg implements Provider.
func (p *ORSProvider) Leg(ctx context.Context, req LegRequest) (geo.Path, error) {
	body := orsDirectionsRequest{Coordinates: toLonLat(req.Waypoints())}
	return p.directions(ctx, req.Profile, body)
}

// RoundTrip implements Provider.
func (p *ORSProvider) RoundTrip(ctx context.Context, req RoundTripRequest) (geo.Path, error) {
	body := orsDirectionsRequest{
		Coordinates: toLonLat([]geo.Point{req.Origin}),
		Options: &orsOptions{RoundTrip: &orsRoundTrip{
			Length: req.LengthMeters,
			Points: req.Points,
			Seed:   req.Seed,
		}},
	}
	return p.directions(ctx, req.Profile, body)
}

func (p *ORSProvider) directions(ctx context.Context, profile Profile, body orsDirectionsRequest) (geo.Path, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	headers := map[string]string{
		"Authorization": p.apiKey,
		"Accept":        "application/json, application/geo+json",
	}

	logger.DebugContext(ctx, "ORS directions request",
		zap.String("profile", string(profile)),
		zap.Int("coordinates", len(body.Coordinates)),
		zap.Bool("round_trip", body.Options != nil),
	)

	resp, err := p.client.Post(ctx, fmt.Sprintf(orsDirectionsEndpoint, profile), body, headers)
	if err != nil {
		return nil, fmt.Errorf("ors directions (%s): %w", profile, err)
	}

	return parseRoute(resp)
}

// parseRoute extracts the first feature's line geometry and converts it
// from provider (lon, lat) order to geo.Path.
func parseRoute(data []byte) (geo.Path, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directions response: %w", err)
	}
	if len(fc.Features) == 0 || fc.Features[0].Geometry == nil {
		return nil, ErrEmptyRoute
	}

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected directions geometry %q", fc.Features[0].Geometry.GeoJSONType())
	}
	if len(line) == 0 {
		return nil, ErrEmptyRoute
	}

	return geo.PathFromLineString(line), nil
}

func toLonLat(points []geo.Point) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, pt := range points {
		out[i] = [2]float64{pt.Lng, pt.Lat}
	}
	return out
}
