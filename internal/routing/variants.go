package routing

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/ahearnzach3/Where2Run/internal/directions"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

var headings = map[string]float64{
	"N": 0,
	"E": 90,
	"S": 180,
	"W": 270,
}

// ParseDirection returns the base compass heading for N, E, S or W, in any
// case. Anything else, including an empty direction, is rejected.
func ParseDirection(direction string) (float64, error) {
	h, ok := headings[strings.ToUpper(strings.TrimSpace(direction))]
	if !ok {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidDirection, direction)
	}
	return h, nil
}

// prefixer lazily builds start -> preset[0] + preset and remembers it for
// the rest of the invocation.
type prefixer struct {
	provider directions.Provider
	profile  directions.Profile
	start    geo.Point
	preset   geo.Path

	done bool
	path geo.Path
}

func (p *prefixer) get(ctx context.Context) (geo.Path, error) {
	if p.done {
		return p.path, nil
	}
	first, ok := p.preset.Start()
	if !ok {
		p.done = true
		return nil, nil
	}

	var connector geo.Path
	if !p.start.Equal(first) {
		leg, err := p.provider.Leg(ctx, directions.LegRequest{Profile: p.profile, From: p.start, To: first})
		if err != nil {
			return nil, fmt.Errorf("connect to preset: %w", err)
		}
		connector = leg
	}
	p.path = geo.Concat(connector, p.preset)
	p.done = true
	return p.path, nil
}

// origin is where generated legs start: the end of the prefix, or start.
func (p *prefixer) origin() geo.Point {
	if end, ok := p.path.End(); ok {
		return end
	}
	return p.start
}

func (s *Service) newSearch(variant Variant, target float64, budget, override int) searcher {
	if override > 0 {
		budget = override
	}
	return searcher{
		variant:     variant,
		target:      target,
		tolerance:   s.cfg.ToleranceMeters,
		startFactor: s.cfg.StartFactor,
		step:        s.cfg.FactorStep,
		budget:      budget,
	}
}

func (s *Service) roundTrip(ctx context.Context, p directions.Profile, origin geo.Point, length float64, seed int) (geo.Path, error) {
	return s.provider.RoundTrip(ctx, directions.RoundTripRequest{
		Profile:      p,
		Origin:       origin,
		LengthMeters: length,
		Points:       s.cfg.pointCount(length),
		Seed:         seed,
	})
}

func (s *Service) loop(ctx context.Context, p directions.Profile, req Request) *Result {
	target := geo.MilesToMeters(req.DistanceMiles)
	pre := &prefixer{provider: s.provider, profile: p, start: req.Start, preset: req.Preset}

	run := s.newSearch(VariantLoop, target, s.cfg.LoopAttempts, req.MaxAttempts)
	return run.run(ctx, func(ctx context.Context, factor float64, seed int) (geo.Path, error) {
		prefix, err := pre.get(ctx)
		if err != nil {
			return nil, err
		}
		remaining := math.Max(0, (target-geo.PathLength(prefix))*factor)
		if remaining <= 0 {
			return prefix, nil
		}
		loop, err := s.roundTrip(ctx, p, pre.origin(), remaining, seed)
		if err != nil {
			return nil, err
		}
		return geo.Concat(prefix, loop), nil
	})
}

func (s *Service) loopWithDestination(ctx context.Context, p directions.Profile, req Request) *Result {
	target := geo.MilesToMeters(req.DistanceMiles)
	dest := *req.Destination
	pre := &prefixer{provider: s.provider, profile: p, start: req.Start, preset: req.Preset}
	noRoute := &Result{Variant: VariantLoopDestination, Status: StatusNoRoute, TargetMeters: target}

	if _, err := pre.get(ctx); err != nil {
		s.logInitFailure(ctx, VariantLoopDestination, err)
		return noRoute
	}
	back, err := s.provider.Leg(ctx, directions.LegRequest{Profile: p, From: dest, To: req.Start})
	if err != nil {
		s.logInitFailure(ctx, VariantLoopDestination, err)
		return noRoute
	}
	backLen := geo.PathLength(back)

	run := s.newSearch(VariantLoopDestination, target, s.cfg.LoopAttempts, req.MaxAttempts)
	return run.run(ctx, func(ctx context.Context, factor float64, seed int) (geo.Path, error) {
		prefix, _ := pre.get(ctx)
		remaining := math.Max(s.cfg.MinLoopMeters, (target-geo.PathLength(prefix)-backLen)*factor)

		loop, err := s.roundTrip(ctx, p, pre.origin(), remaining, seed)
		if err != nil {
			return nil, err
		}
		loopEnd, ok := loop.End()
		if !ok {
			return nil, directions.ErrEmptyRoute
		}
		toDest, err := s.provider.Leg(ctx, directions.LegRequest{
			Profile: p,
			From:    loopEnd,
			To:      dest,
			Via:     []geo.Point{geo.Midpoint(loopEnd, dest)},
		})
		if err != nil {
			return nil, err
		}
		return geo.Concat(prefix, loop, toDest, back), nil
	})
}

func (s *Service) outAndBack(ctx context.Context, p directions.Profile, req Request, heading float64) *Result {
	target := geo.MilesToMeters(req.DistanceMiles)

	run := s.newSearch(VariantOutAndBack, target, s.cfg.DirectionalAttempts, req.MaxAttempts)
	run.startFactor = s.cfg.DirectionalStartFactor
	run.pause = s.cfg.DirectionalPause
	return run.run(ctx, func(ctx context.Context, factor float64, _ int) (geo.Path, error) {
		half := math.Max(target/2*factor, s.cfg.MinHalfMeters)
		jitter := (rand.Float64()*2 - 1) * s.cfg.JitterDegrees
		mid := geo.Offset(req.Start, heading+jitter, half)
		return s.provider.Leg(ctx, directions.LegRequest{
			Profile: p,
			From:    req.Start,
			To:      req.Start,
			Via:     []geo.Point{mid},
		})
	})
}

func (s *Service) extendedDestination(ctx context.Context, p directions.Profile, req Request) *Result {
	target := geo.MilesToMeters(req.DistanceMiles)
	dest := *req.Destination
	pre := &prefixer{provider: s.provider, profile: p, start: req.Start, preset: req.Preset}
	noRoute := &Result{Variant: VariantExtendedDestination, Status: StatusNoRoute, TargetMeters: target}

	if _, err := pre.get(ctx); err != nil {
		s.logInitFailure(ctx, VariantExtendedDestination, err)
		return noRoute
	}
	toDest, err := s.provider.Leg(ctx, directions.LegRequest{Profile: p, From: pre.origin(), To: dest})
	if err != nil {
		s.logInitFailure(ctx, VariantExtendedDestination, err)
		return noRoute
	}
	toDestLen := geo.PathLength(toDest)

	run := s.newSearch(VariantExtendedDestination, target, s.cfg.ExtensionAttempts, req.MaxAttempts)
	return run.run(ctx, func(ctx context.Context, factor float64, seed int) (geo.Path, error) {
		prefix, _ := pre.get(ctx)
		length := math.Max(s.cfg.MinLoopMeters, (target-geo.PathLength(prefix)-toDestLen)*factor)

		loop, err := s.roundTrip(ctx, p, pre.origin(), length, seed)
		if err != nil {
			return nil, err
		}
		return geo.Concat(prefix, loop, toDest), nil
	})
}

// single runs a one-shot leg with no distance target.
func (s *Service) single(ctx context.Context, variant Variant, leg directions.LegRequest) *Result {
	path, err := s.provider.Leg(ctx, leg)
	if err != nil || len(path) == 0 {
		if err == nil {
			err = directions.ErrEmptyRoute
		}
		s.logInitFailure(ctx, variant, err)
		return &Result{Variant: variant, Status: StatusNoRoute, Attempts: 1}
	}
	return newResult(variant, StatusMatched, path, 0, 1)
}
