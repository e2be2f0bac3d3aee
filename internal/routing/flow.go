package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ahearnzach3/Where2Run/internal/profile"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

// FlowState is a step of the destination wizard.
type FlowState string

const (
	FlowInitial   FlowState = "initial"
	FlowRouted    FlowState = "routed"
	FlowExtended  FlowState = "extended"
	FlowRoundTrip FlowState = "round_trip"
)

// DefaultExtensionMiles is added to the one-way distance to suggest an
// extended target.
const DefaultExtensionMiles = 2.0

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current flow state.
	ErrInvalidTransition = errors.New("invalid destination flow transition")
	// ErrExtensionTooShort rejects an extended target below the one-way distance.
	ErrExtensionTooShort = fmt.Errorf("%w: extended distance must be at least the one-way distance", ErrInvalidRequest)
)

// DestinationRouter is the part of Service the destination flow drives.
type DestinationRouter interface {
	Destination(ctx context.Context, req Request) (*Result, error)
	ExtendedDestination(ctx context.Context, req Request) (*Result, error)
	DestinationRoundTrip(ctx context.Context, req Request) (*Result, error)
}

// DestinationFlow walks a user from a one-way route to either an extended
// route of a chosen length or a round trip:
//
//	initial -> routed -> {extended | round_trip}
//
// Once routed, the user may switch between extending and the round trip.
type DestinationFlow struct {
	mu     sync.Mutex
	router DestinationRouter
	state  FlowState

	start       geo.Point
	destination geo.Point
	environment profile.Environment
	oneWay      *Result
	current     *Result
}

// NewDestinationFlow returns a flow in the initial state.
func NewDestinationFlow(router DestinationRouter) *DestinationFlow {
	return &DestinationFlow{router: router, state: FlowInitial}
}

// State returns the current step.
func (f *DestinationFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OneWayMiles is the length of the one-way route, or 0 before routing.
func (f *DestinationFlow) OneWayMiles() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.oneWay == nil {
		return 0
	}
	return f.oneWay.DistanceMiles
}

// SuggestedMiles is the default extended target.
func (f *DestinationFlow) SuggestedMiles() float64 {
	return f.OneWayMiles() + DefaultExtensionMiles
}

// Current returns the most recent route of the flow.
func (f *DestinationFlow) Current() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Route computes the one-way route. The flow only advances when a route was
// found.
func (f *DestinationFlow) Route(ctx context.Context, start, destination geo.Point, env profile.Environment) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowInitial {
		return nil, fmt.Errorf("%w: route from %s", ErrInvalidTransition, f.state)
	}

	res, err := f.router.Destination(ctx, Request{Start: start, Destination: &destination, Environment: env})
	if err != nil {
		return nil, err
	}
	if res.Found() {
		f.start, f.destination, f.environment = start, destination, env
		f.oneWay, f.current = res, res
		f.state = FlowRouted
	}
	return res, nil
}

// Extend generates a route of miles that ends at the destination.
func (f *DestinationFlow) Extend(ctx context.Context, miles float64, maxAttempts int) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FlowInitial {
		return nil, fmt.Errorf("%w: extend from %s", ErrInvalidTransition, f.state)
	}
	if miles < f.oneWay.DistanceMiles {
		return nil, fmt.Errorf("%w: %.2f < %.2f", ErrExtensionTooShort, miles, f.oneWay.DistanceMiles)
	}

	dest := f.destination
	res, err := f.router.ExtendedDestination(ctx, Request{
		Start:         f.start,
		Destination:   &dest,
		DistanceMiles: miles,
		Environment:   f.environment,
		MaxAttempts:   maxAttempts,
	})
	if err != nil {
		return nil, err
	}
	if res.Found() {
		f.current = res
		f.state = FlowExtended
	}
	return res, nil
}

// RoundTrip generates start -> destination -> start.
func (f *DestinationFlow) RoundTrip(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FlowInitial {
		return nil, fmt.Errorf("%w: round trip from %s", ErrInvalidTransition, f.state)
	}

	dest := f.destination
	res, err := f.router.DestinationRoundTrip(ctx, Request{Start: f.start, Destination: &dest, Environment: f.environment})
	if err != nil {
		return nil, err
	}
	if res.Found() {
		f.current = res
		f.state = FlowRoundTrip
	}
	return res, nil
}

// Reset returns the flow to the initial state.
func (f *DestinationFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FlowInitial
	f.oneWay, f.current = nil, nil
	f.start, f.destination = geo.Point{}, geo.Point{}
	f.environment = profile.EnvNone
}
