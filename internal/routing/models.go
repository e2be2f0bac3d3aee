package routing

import (
	"errors"
	"fmt"

	"github.com/ahearnzach3/Where2Run/internal/directions"
	"github.com/ahearnzach3/Where2Run/internal/profile"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

var (
	// ErrInvalidRequest marks caller input rejected before any upstream call.
	ErrInvalidRequest = errors.New("invalid route request")
	// ErrInvalidDirection is returned for a direction other than N, E, S or W.
	ErrInvalidDirection = fmt.Errorf("%w: direction must be one of N, E, S, W", ErrInvalidRequest)
	// ErrNoRoute means every attempt failed to produce a path.
	ErrNoRoute = errors.New("could not generate a route")
)

// Variant names a route shape.
type Variant string

const (
	VariantLoop                 Variant = "loop"
	VariantLoopDestination      Variant = "loop_destination"
	VariantOutAndBack           Variant = "out_and_back"
	VariantExtendedDestination  Variant = "extended_destination"
	VariantDestination          Variant = "destination"
	VariantDestinationRoundTrip Variant = "destination_round_trip"
)

// Status describes how a result relates to the requested distance.
type Status string

const (
	// StatusMatched: the path length is inside the tolerance band.
	StatusMatched Status = "matched"
	// StatusBestEffort: the attempt budget ran out; Path is the closest
	// candidate seen and may be outside the band.
	StatusBestEffort Status = "best_effort"
	// StatusNoRoute: no attempt produced a path.
	StatusNoRoute Status = "no_route"
)

// Request is the input shared by all route variants. Fields a variant does
// not use are ignored.
type Request struct {
	Start         geo.Point
	DistanceMiles float64
	// Preset is an optional fixed segment driven before the generated loop.
	Preset      geo.Path
	Destination *geo.Point
	// Direction is N, E, S or W (any case). Empty means N.
	Direction   string
	Environment profile.Environment
	// MaxAttempts overrides the variant's default budget when > 0.
	MaxAttempts int
}

// Result is the outcome of one route generation.
type Result struct {
	Variant        Variant            `json:"variant"`
	Status         Status             `json:"status"`
	Path           geo.Path           `json:"path"`
	DistanceMeters float64            `json:"distance_meters"`
	DistanceMiles  float64            `json:"distance_miles"`
	TargetMeters   float64            `json:"target_meters,omitempty"`
	Attempts       int                `json:"attempts"`
	Profile        directions.Profile `json:"profile"`
	Notice         string             `json:"notice,omitempty"`
}

// Found reports whether the result carries a path.
func (r *Result) Found() bool {
	return r != nil && len(r.Path) > 0
}

func newResult(variant Variant, status Status, path geo.Path, target float64, attempts int) *Result {
	meters := geo.PathLength(path)
	return &Result{
		Variant:        variant,
		Status:         status,
		Path:           path,
		DistanceMeters: meters,
		DistanceMiles:  geo.MetersToMiles(meters),
		TargetMeters:   target,
		Attempts:       attempts,
	}
}
