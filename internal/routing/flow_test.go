package routing

import (
	"context"
	"testing"

	"github.com/ahearnzach3/Where2Run/internal/directions"
	"github.com/ahearnzach3/Where2Run/internal/profile"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationFlow_HappyPath(t *testing.T) {
	flow := NewDestinationFlow(newTestService(&fakeProvider{}))
	ctx := context.Background()

	assert.Equal(t, FlowInitial, flow.State())
	assert.Zero(t, flow.OneWayMiles())

	oneWay, err := flow.Route(ctx, start, dest, profile.EnvNone)
	require.NoError(t, err)
	require.True(t, oneWay.Found())
	assert.Equal(t, FlowRouted, flow.State())
	assert.InDelta(t, oneWay.DistanceMiles, flow.OneWayMiles(), 1e-9)
	assert.InDelta(t, oneWay.DistanceMiles+2.0, flow.SuggestedMiles(), 1e-9)

	extended, err := flow.Extend(ctx, flow.SuggestedMiles(), 2)
	require.NoError(t, err)
	require.True(t, extended.Found())
	assert.Equal(t, FlowExtended, flow.State())
	assert.Equal(t, VariantExtendedDestination, flow.Current().Variant)

	// switching to the round trip is allowed once routed
	round, err := flow.RoundTrip(ctx)
	require.NoError(t, err)
	assert.Equal(t, FlowRoundTrip, flow.State())
	assert.Equal(t, geo.Path{start, dest, start}, round.Path)

	flow.Reset()
	assert.Equal(t, FlowInitial, flow.State())
	assert.Nil(t, flow.Current())
}

func TestDestinationFlow_GuardedTransitions(t *testing.T) {
	flow := NewDestinationFlow(newTestService(&fakeProvider{}))
	ctx := context.Background()

	_, err := flow.Extend(ctx, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = flow.RoundTrip(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = flow.Route(ctx, start, dest, profile.EnvNone)
	require.NoError(t, err)

	_, err = flow.Route(ctx, start, dest, profile.EnvNone)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDestinationFlow_ExtensionShorterThanOneWay(t *testing.T) {
	provider := &fakeProvider{}
	flow := NewDestinationFlow(newTestService(provider))
	ctx := context.Background()

	_, err := flow.Route(ctx, start, dest, profile.EnvNone)
	require.NoError(t, err)
	calls := provider.calls()

	_, err = flow.Extend(ctx, flow.OneWayMiles()/2, 0)
	assert.ErrorIs(t, err, ErrExtensionTooShort)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, FlowRouted, flow.State())
	assert.Equal(t, calls, provider.calls())
}

func TestDestinationFlow_StaysInitialWithoutRoute(t *testing.T) {
	provider := &fakeProvider{
		leg: func(directions.LegRequest) (geo.Path, error) {
			return nil, errUpstream
		},
	}
	flow := NewDestinationFlow(newTestService(provider))

	res, err := flow.Route(context.Background(), start, dest, profile.EnvNone)
	require.NoError(t, err)
	assert.Equal(t, StatusNoRoute, res.Status)
	assert.Equal(t, FlowInitial, flow.State())
}
