package elevation

import (
	"context"
	"errors"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
	"github.com/ahearnzach3/Where2Run/pkg/tracing"
	"go.uber.org/zap"
)

const tracerName = "where2run/elevation"

// MaxSamples bounds the number of points sent to a provider.
const MaxSamples = 2000

// ErrEmptyPath is returned for a path without points.
var ErrEmptyPath = errors.New("elevation requires at least one point")

// Service builds elevation profiles for routes.
type Service struct {
	provider    Provider
	breaker     *resilience.CircuitBreaker
	name        string
	gradeWindow int
}

// NewService creates an elevation service. breaker may be nil.
func NewService(provider Provider, breaker *resilience.CircuitBreaker, name string) *Service {
	if name == "" {
		name = "elevation"
	}
	return &Service{provider: provider, breaker: breaker, name: name, gradeWindow: DefaultGradeWindow}
}

// Profile looks up heights along path and derives the run statistics.
func (s *Service) Profile(ctx context.Context, path geo.Path) (*Profile, error) {
	if path.Empty() {
		return nil, ErrEmptyPath
	}

	query := Downsample(path, MaxSamples)
	var samples []Sample
	err := tracing.TraceExternalAPI(ctx, tracerName, s.name, "elevations", func(ctx context.Context) error {
		out, err := s.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return s.provider.Elevations(ctx, query)
		})
		if err != nil {
			return err
		}
		samples = out.([]Sample)
		return nil
	})
	if err != nil {
		logger.WarnContext(ctx, "elevation lookup failed",
			zap.String("provider", s.name),
			zap.Int("points", len(query)),
			zap.Error(err),
		)
		return nil, err
	}

	return Build(path, samples, s.gradeWindow), nil
}
