package directions

import (
	"context"
	"errors"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

// Profile is a movement profile understood by the directions provider.
type Profile string

const (
	ProfileWalking Profile = "foot-walking"
	ProfileHiking  Profile = "foot-hiking"
)

// DefaultProfile is used whenever no better profile is known.
const DefaultProfile = ProfileWalking

// ErrEmptyRoute is returned when the provider answers without any geometry.
var ErrEmptyRoute = errors.New("directions provider returned no route")

// LegRequest asks for a point-to-point route From -> Via... -> To.
type LegRequest struct {
	Profile Profile
	From    geo.Point
	To      geo.Point
	Via     []geo.Point
}

// Waypoints returns the ordered list of points the leg must visit.
func (r LegRequest) Waypoints() []geo.Point {
	pts := make([]geo.Point, 0, len(r.Via)+2)
	pts = append(pts, r.From)
	pts = append(pts, r.Via...)
	return append(pts, r.To)
}

// RoundTripRequest asks the provider to synthesise a loop of roughly
// LengthMeters starting and ending at Origin.
type RoundTripRequest struct {
	Profile      Profile
	Origin       geo.Point
	LengthMeters float64
	Points       int
	Seed         int
}

// Provider is the directions oracle. Both calls either return a complete
// path or an error, never a partial result.
type Provider interface {
	Leg(ctx context.Context, req LegRequest) (geo.Path, error)
	RoundTrip(ctx context.Context, req RoundTripRequest) (geo.Path, error)
}
