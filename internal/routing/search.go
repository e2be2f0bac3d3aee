package routing

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	apperrors "github.com/ahearnzach3/Where2Run/pkg/errors"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxSeed = 10000

// outcomeKind classifies one attempt.
type outcomeKind int

const (
	outcomeFailure outcomeKind = iota
	outcomeCandidate
	outcomeSuccess
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeSuccess:
		return "success"
	case outcomeCandidate:
		return "candidate"
	default:
		return "failure"
	}
}

// attemptFunc builds one full candidate path. factor is the current
// adjustment factor and seed a fresh value in [0, maxSeed].
type attemptFunc func(ctx context.Context, factor float64, seed int) (geo.Path, error)

// searchState is owned by a single invocation and discarded on exit.
type searchState struct {
	factor    float64
	attempts  int
	best      geo.Path
	bestError float64
	lastErr   error
}

// observe records an attempt and reports whether the search is done.
func (st *searchState) observe(path geo.Path, err error, target, tolerance, step float64) (outcomeKind, float64) {
	st.attempts++
	if err != nil || len(path) == 0 {
		if err != nil {
			st.lastErr = err
		}
		return outcomeFailure, 0
	}

	length := geo.PathLength(path)
	diff := math.Abs(length - target)
	if diff <= tolerance {
		st.best, st.bestError = path, diff
		return outcomeSuccess, length
	}

	if st.best == nil || diff < st.bestError {
		st.best, st.bestError = path, diff
	}
	st.factor = math.Max(0, st.factor-step)
	return outcomeCandidate, length
}

// searcher runs the shared attempt loop for every variant.
type searcher struct {
	variant     Variant
	target      float64
	tolerance   float64
	startFactor float64
	step        float64
	budget      int
	pause       time.Duration
}

func (s searcher) run(ctx context.Context, attempt attemptFunc) *Result {
	log := logger.WithContext(ctx).With(
		zap.String("variant", string(s.variant)),
		zap.Float64("target_m", s.target),
	)

	var limiter *rate.Limiter
	if s.pause > 0 {
		limiter = rate.NewLimiter(rate.Every(s.pause), 1)
	}

	st := &searchState{factor: s.startFactor}
	for st.attempts < s.budget {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				log.Warn("search interrupted", zap.Int("attempt", st.attempts+1), zap.Error(err))
				break
			}
		} else if ctx.Err() != nil {
			log.Warn("search interrupted", zap.Int("attempt", st.attempts+1), zap.Error(ctx.Err()))
			break
		}

		factor := st.factor
		path, err := attempt(ctx, factor, rand.IntN(maxSeed+1))
		kind, length := st.observe(path, err, s.target, s.tolerance, s.step)
		tracing.AddSpanEvent(ctx, "attempt",
			attribute.Int("attempt", st.attempts),
			attribute.Float64("factor", factor),
			attribute.String("outcome", kind.String()),
			attribute.Float64("distance_m", length),
		)

		fields := []zap.Field{
			zap.Int("attempt", st.attempts),
			zap.Float64("factor", factor),
			zap.String("outcome", kind.String()),
		}
		switch kind {
		case outcomeSuccess:
			log.Info("route within tolerance", append(fields, zap.Float64("distance_m", length))...)
			searchAttempts.WithLabelValues(string(s.variant), kind.String()).Inc()
			return newResult(s.variant, StatusMatched, st.best, s.target, st.attempts)
		case outcomeCandidate:
			log.Info("route outside tolerance", append(fields, zap.Float64("distance_m", length))...)
		default:
			if err == nil {
				err = ErrNoRoute
			}
			log.Warn("route attempt failed", append(fields, zap.Error(err))...)
		}
		searchAttempts.WithLabelValues(string(s.variant), kind.String()).Inc()
	}

	if st.best == nil {
		// no candidate at all and the oracle reported errors
		if st.lastErr != nil && ctx.Err() == nil {
			apperrors.CaptureError(ctx, fmt.Errorf("%s search exhausted %d attempts: %w", s.variant, st.attempts, st.lastErr),
				map[string]string{"variant": string(s.variant), "stage": "search"})
		}
		return &Result{Variant: s.variant, Status: StatusNoRoute, TargetMeters: s.target, Attempts: st.attempts}
	}
	log.Info("attempt budget exhausted, returning closest route",
		zap.Int("attempts", st.attempts),
		zap.Float64("error_m", st.bestError),
	)
	return newResult(s.variant, StatusBestEffort, st.best, s.target, st.attempts)
}
