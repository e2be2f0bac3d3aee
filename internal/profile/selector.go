package profile

import (
	"context"
	"strings"

	"github.com/ahearnzach3/Where2Run/internal/directions"
	"github.com/ahearnzach3/Where2Run/internal/environment"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"go.uber.org/zap"
)

// Environment is the caller's preferred surroundings for a route.
type Environment string

const (
	EnvNone     Environment = ""
	EnvTrail    Environment = "trail"
	EnvSuburban Environment = "suburban"
	EnvUrban    Environment = "urban"
	EnvScenic   Environment = "scenic"
	EnvShaded   Environment = "shaded"
)

// ParseEnvironment normalises user input. "none", "" and unknown values map
// to EnvNone; ok is false only for unknown values.
func ParseEnvironment(s string) (Environment, bool) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "none":
		return EnvNone, true
	case "prefer trails":
		return EnvTrail, true
	default:
		env := Environment(v)
		if _, ok := rules[env]; ok {
			return env, true
		}
		return EnvNone, false
	}
}

type rule struct {
	mode     environment.Mode
	elevated bool
	notice   string
}

// rules is the single source of truth for environment handling.
var rules = map[Environment]rule{
	EnvTrail: {
		mode:     environment.ModeTrail,
		elevated: true,
		notice:   "No trails found nearby, using walking paths instead.",
	},
	EnvSuburban: {
		mode:   environment.ModeSuburban,
		notice: "No residential streets found nearby, using the default walking profile.",
	},
	EnvUrban: {
		mode:   environment.ModeUrban,
		notice: "No major urban roads found nearby, using the default walking profile.",
	},
	EnvScenic: {
		mode:     environment.ModeScenic,
		elevated: true,
		notice:   "No parks, water or viewpoints found nearby, using walking paths instead.",
	},
	EnvShaded: {
		mode:     environment.ModeShaded,
		elevated: true,
		notice:   "No wooded areas found nearby, using walking paths instead.",
	},
}

// Classifier is the part of environment.Classifier the selector needs.
type Classifier interface {
	Matches(ctx context.Context, point geo.Point, mode environment.Mode, radius int) bool
}

// Selection is the chosen profile and an optional user-facing notice.
type Selection struct {
	Profile directions.Profile `json:"profile"`
	Notice  string             `json:"notice,omitempty"`
}

// Selector picks a movement profile for a requested environment.
type Selector struct {
	classifier Classifier
	radius     int
}

// NewSelector creates a selector. A nil classifier is treated as "nothing
// ever matches".
func NewSelector(classifier Classifier, radius int) *Selector {
	return &Selector{classifier: classifier, radius: radius}
}

// Select returns the profile to use at point for env.
func (s *Selector) Select(ctx context.Context, point geo.Point, env Environment) Selection {
	r, ok := rules[env]
	if !ok {
		return Selection{Profile: directions.DefaultProfile}
	}

	if s.classifier != nil && s.classifier.Matches(ctx, point, r.mode, s.radius) {
		if r.elevated {
			return Selection{Profile: directions.ProfileHiking}
		}
		return Selection{Profile: directions.DefaultProfile}
	}

	logger.InfoContext(ctx, "preferred environment unavailable",
		zap.String("environment", string(env)),
		zap.String("point", point.String()),
	)
	return Selection{Profile: directions.DefaultProfile, Notice: r.notice}
}

// RunWithFallback runs fn with the selected profile. If that fails and the
// selected profile is not already the default, fn is run exactly once more
// with the default profile and its outcome is final.
func RunWithFallback[T any](ctx context.Context, sel Selection, fn func(context.Context, directions.Profile) (T, error)) (T, directions.Profile, error) {
	profile := sel.Profile
	if profile == "" {
		profile = directions.DefaultProfile
	}

	result, err := fn(ctx, profile)
	if err == nil || profile == directions.DefaultProfile {
		return result, profile, err
	}

	logger.WarnContext(ctx, "route generation failed, retrying with default profile",
		zap.String("profile", string(profile)),
		zap.Error(err),
	)

	result, err = fn(ctx, directions.DefaultProfile)
	return result, directions.DefaultProfile, err
}
