package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahearnzach3/Where2Run/internal/directions"
	"github.com/ahearnzach3/Where2Run/internal/profile"
	apperrors "github.com/ahearnzach3/Where2Run/pkg/errors"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "where2run/routing"

// ProfileSelector picks the movement profile for a request.
type ProfileSelector interface {
	Select(ctx context.Context, point geo.Point, env profile.Environment) profile.Selection
}

// Service generates routes of a requested length.
type Service struct {
	provider directions.Provider
	selector ProfileSelector
	cfg      SearchConfig
}

// NewService creates a routing service. A nil selector always uses the
// default profile.
func NewService(provider directions.Provider, selector ProfileSelector, cfg SearchConfig) *Service {
	if selector == nil {
		selector = profile.NewSelector(nil, 0)
	}
	return &Service{provider: provider, selector: selector, cfg: cfg}
}

// Loop returns a route that starts and ends at req.Start, optionally driving
// req.Preset first.
func (s *Service) Loop(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req, true, false); err != nil {
		return nil, err
	}
	return s.generate(ctx, VariantLoop, req, func(ctx context.Context, p directions.Profile) *Result {
		return s.loop(ctx, p, req)
	})
}

// LoopWithDestination runs a loop, then heads to req.Destination and back
// to the start.
func (s *Service) LoopWithDestination(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req, true, true); err != nil {
		return nil, err
	}
	return s.generate(ctx, VariantLoopDestination, req, func(ctx context.Context, p directions.Profile) *Result {
		return s.loopWithDestination(ctx, p, req)
	})
}

// OutAndBack runs away from the start towards req.Direction and returns the
// same way.
func (s *Service) OutAndBack(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req, true, false); err != nil {
		return nil, err
	}
	heading, err := ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, VariantOutAndBack, req, func(ctx context.Context, p directions.Profile) *Result {
		return s.outAndBack(ctx, p, req, heading)
	})
}

// ExtendedDestination adds a loop before the leg to req.Destination so the
// whole run reaches the requested distance.
func (s *Service) ExtendedDestination(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req, true, true); err != nil {
		return nil, err
	}
	return s.generate(ctx, VariantExtendedDestination, req, func(ctx context.Context, p directions.Profile) *Result {
		return s.extendedDestination(ctx, p, req)
	})
}

// Destination returns the one-way route from req.Start to req.Destination.
func (s *Service) Destination(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req, false, true); err != nil {
		return nil, err
	}
	return s.generate(ctx, VariantDestination, req, func(ctx context.Context, p directions.Profile) *Result {
		return s.single(ctx, VariantDestination, directions.LegRequest{Profile: p, From: req.Start, To: *req.Destination})
	})
}

// DestinationRoundTrip returns start -> destination -> start.
func (s *Service) DestinationRoundTrip(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req, false, true); err != nil {
		return nil, err
	}
	return s.generate(ctx, VariantDestinationRoundTrip, req, func(ctx context.Context, p directions.Profile) *Result {
		return s.single(ctx, VariantDestinationRoundTrip, directions.LegRequest{
			Profile: p,
			From:    req.Start,
			To:      req.Start,
			Via:     []geo.Point{*req.Destination},
		})
	})
}

func validate(req Request, needDistance, needDestination bool) error {
	if !req.Start.Valid() {
		return fmt.Errorf("%w: start %s out of range", ErrInvalidRequest, req.Start)
	}
	if needDistance && !(req.DistanceMiles > 0) {
		return fmt.Errorf("%w: distance must be positive", ErrInvalidRequest)
	}
	if needDestination {
		if req.Destination == nil {
			return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
		}
		if !req.Destination.Valid() {
			return fmt.Errorf("%w: destination %s out of range", ErrInvalidRequest, *req.Destination)
		}
	}
	if _, ok := profile.ParseEnvironment(string(req.Environment)); !ok {
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidRequest, req.Environment)
	}
	if req.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts must not be negative", ErrInvalidRequest)
	}
	for i, p := range req.Preset {
		if !p.Valid() {
			return fmt.Errorf("%w: preset point %d out of range", ErrInvalidRequest, i)
		}
	}
	return nil
}

func (s *Service) generate(ctx context.Context, variant Variant, req Request, build func(context.Context, directions.Profile) *Result) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "routing."+string(variant),
		trace.WithAttributes(tracing.SearchVariantKey.String(string(variant))),
		trace.WithAttributes(tracing.LocationAttributes(req.Start.Lat, req.Start.Lng)...),
	)
	defer span.End()
	started := time.Now()

	env, _ := profile.ParseEnvironment(string(req.Environment))
	sel := s.selector.Select(ctx, req.Start, env)

	attempts := 0
	result, used, err := profile.RunWithFallback(ctx, sel, func(ctx context.Context, p directions.Profile) (*Result, error) {
		r := build(ctx, p)
		attempts += r.Attempts
		if !r.Found() {
			return r, ErrNoRoute
		}
		return r, nil
	})
	if err != nil && !errors.Is(err, ErrNoRoute) {
		apperrors.CaptureError(ctx, err, map[string]string{"variant": string(variant), "stage": "generate"})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result == nil {
		result = &Result{Variant: variant, Status: StatusNoRoute}
	}
	result.Profile = used
	result.Notice = sel.Notice
	result.Attempts = attempts

	span.SetAttributes(
		tracing.SearchStatusKey.String(string(result.Status)),
		tracing.SearchProfileKey.String(string(used)),
		tracing.SearchAttemptsKey.Int(result.Attempts),
		tracing.SearchDistanceKey.Float64(result.DistanceMeters),
		tracing.SearchTargetKey.Float64(result.TargetMeters),
	)
	if result.Status == StatusNoRoute {
		span.AddEvent("no_route", trace.WithAttributes(attribute.String("environment", string(env))))
	}
	searchOutcomes.WithLabelValues(string(variant), string(result.Status)).Inc()
	searchDuration.WithLabelValues(string(variant)).Observe(time.Since(started).Seconds())

	logger.InfoContext(ctx, "route search finished",
		zap.String("variant", string(variant)),
		zap.String("status", string(result.Status)),
		zap.String("profile", string(used)),
		zap.Int("attempts", result.Attempts),
		zap.Float64("distance_m", result.DistanceMeters),
		zap.Float64("target_m", result.TargetMeters),
	)
	return result, nil
}

func (s *Service) logInitFailure(ctx context.Context, variant Variant, err error) {
	logger.WarnContext(ctx, "route setup failed",
		zap.String("variant", string(variant)),
		zap.Error(err),
	)
	apperrors.CaptureError(ctx, fmt.Errorf("%s setup: %w", variant, err), map[string]string{
		"variant": string(variant),
		"stage":   "setup",
	})
}
