package elevation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/httpclient"
	"github.com/tidwall/gjson"
	"github.com/tkrajina/go-elevations/geoelevations"
)

// ErrNoElevation is returned when a provider answers without any usable
// heights.
var ErrNoElevation = errors.New("no elevation data")

// Sample is a point with its height above sea level in metres.
type Sample struct {
	geo.Point
	ElevationM float64 `json:"elevation_m"`
}

// Provider looks up heights along a path.
type Provider interface {
	Elevations(ctx context.Context, path geo.Path) ([]Sample, error)
}

const (
	orsBaseURL       = "https://api.openrouteservice.org"
	orsLineEndpoint  = "/elevation/line"
	orsFormatIn      = "polyline"
	orsFormatOut     = "geojson"
	defaultORSTimeout = 20 * time.Second
)

// ORSProvider uses the OpenRouteService elevation/line endpoint.
type ORSProvider struct {
	apiKey string
	client *httpclient.Client
}

// NewORSProvider creates a provider. An empty baseURL uses the public API.
func NewORSProvider(apiKey, baseURL string, timeout time.Duration) *ORSProvider {
	if baseURL == "" {
		baseURL = orsBaseURL
	}
	if timeout <= 0 {
		timeout = defaultORSTimeout
	}
	return &ORSProvider{
		apiKey: apiKey,
		client: httpclient.NewClient(baseURL, timeout),
	}
}

type orsLineRequest struct {
	FormatIn  string       `json:"format_in"`
	FormatOut string       `json:"format_out"`
	Geometry  [][2]float64 `json:"geometry"`
}

// Elevations implements Provider.
func (p *ORSProvider) Elevations(ctx context.Context, path geo.Path) ([]Sample, error) {
	body := orsLineRequest{
		FormatIn:  orsFormatIn,
		FormatOut: orsFormatOut,
		Geometry:  make([][2]float64, len(path)),
	}
	for i, pt := range path {
		body.Geometry[i] = [2]float64{pt.Lng, pt.Lat}
	}

	resp, err := p.client.Post(ctx, orsLineEndpoint, body, map[string]string{"Authorization": p.apiKey})
	if err != nil {
		return nil, fmt.Errorf("ors elevation: %w", err)
	}
	return parseLine(resp)
}

// parseLine reads [lon, lat, ele] triples; entries without a height are
// skipped.
func parseLine(data []byte) ([]Sample, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("ors elevation: invalid json")
	}

	coords := gjson.GetBytes(data, "geometry.coordinates").Array()
	samples := make([]Sample, 0, len(coords))
	for _, c := range coords {
		v := c.Array()
		if len(v) < 3 {
			continue
		}
		samples = append(samples, Sample{
			Point:      geo.Point{Lat: v[1].Float(), Lng: v[0].Float()},
			ElevationM: v[2].Float(),
		})
	}
	if len(samples) == 0 {
		return nil, ErrNoElevation
	}
	return samples, nil
}

// tileSource is satisfied by *geoelevations.Srtm.
type tileSource interface {
	GetElevation(client *http.Client, latitude, longitude float64) (float64, error)
}

// SRTMProvider reads heights from SRTM tiles, downloading them on demand.
type SRTMProvider struct {
	srtm   tileSource
	client *http.Client
}

// NewSRTMProvider loads the SRTM tile index.
func NewSRTMProvider(client *http.Client) (*SRTMProvider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	srtm, err := geoelevations.NewSrtm(client)
	if err != nil {
		return nil, fmt.Errorf("creating srtm client: %w", err)
	}
	return &SRTMProvider{srtm: srtm, client: client}, nil
}

// Elevations implements Provider. Points outside SRTM coverage are skipped.
func (p *SRTMProvider) Elevations(ctx context.Context, path geo.Path) ([]Sample, error) {
	samples := make([]Sample, 0, len(path))
	for _, pt := range path {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ele, err := p.srtm.GetElevation(p.client, pt.Lat, pt.Lng)
		if err != nil {
			return nil, fmt.Errorf("srtm elevation at %s: %w", pt, err)
		}
		if math.IsNaN(ele) {
			continue
		}
		samples = append(samples, Sample{Point: pt, ElevationM: ele})
	}
	if len(samples) == 0 {
		return nil, ErrNoElevation
	}
	return samples, nil
}
