package routing

import (
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/config"
)

// SearchConfig tunes the search loop. The zero value is not usable; start
// from DefaultSearchConfig.
type SearchConfig struct {
	ToleranceMeters float64
	StartFactor     float64
	FactorStep      float64

	LoopAttempts        int
	DirectionalAttempts int
	ExtensionAttempts   int

	MetersPerPoint float64
	MinPoints      int
	MaxPoints      int

	// MinLoopMeters floors the loop budget of the destination variants.
	MinLoopMeters float64
	// MinHalfMeters floors the out-and-back turnaround distance.
	MinHalfMeters float64
	// DirectionalStartFactor scales the first out-and-back turnaround.
	DirectionalStartFactor float64
	JitterDegrees          float64
	DirectionalPause       time.Duration
}

// DefaultSearchConfig returns the production tuning.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		ToleranceMeters:        1207,
		StartFactor:            0.85,
		FactorStep:             0.05,
		LoopAttempts:           8,
		DirectionalAttempts:    5,
		ExtensionAttempts:      5,
		MetersPerPoint:         500,
		MinPoints:              10,
		MaxPoints:              40,
		MinLoopMeters:          500,
		MinHalfMeters:          800,
		DirectionalStartFactor: 1.0,
		JitterDegrees:          15,
		DirectionalPause:       300 * time.Millisecond,
	}
}

// SearchConfigFrom overlays environment configuration on the defaults.
func SearchConfigFrom(c config.SearchConfig) SearchConfig {
	cfg := DefaultSearchConfig()
	if c.ToleranceMeters > 0 {
		cfg.ToleranceMeters = c.ToleranceMeters
	}
	if c.StartFactor > 0 {
		cfg.StartFactor = c.StartFactor
	}
	if c.FactorStep > 0 {
		cfg.FactorStep = c.FactorStep
	}
	if c.LoopAttempts > 0 {
		cfg.LoopAttempts = c.LoopAttempts
	}
	if c.DirectionalAttempts > 0 {
		cfg.DirectionalAttempts = c.DirectionalAttempts
	}
	if c.ExtensionAttempts > 0 {
		cfg.ExtensionAttempts = c.ExtensionAttempts
	}
	if c.MetersPerPoint > 0 {
		cfg.MetersPerPoint = c.MetersPerPoint
	}
	if c.MinPoints > 0 {
		cfg.MinPoints = c.MinPoints
	}
	if c.MaxPoints >= cfg.MinPoints {
		cfg.MaxPoints = c.MaxPoints
	}
	if c.DirectionalPauseMs >= 0 {
		cfg.DirectionalPause = c.DirectionalPause()
	}
	return cfg
}

// pointCount maps a loop budget to the provider's waypoint count.
func (c SearchConfig) pointCount(remaining float64) int {
	n := c.MinPoints
	if c.MetersPerPoint > 0 {
		n = int(remaining / c.MetersPerPoint)
	}
	if n < c.MinPoints {
		n = c.MinPoints
	}
	if n > c.MaxPoints {
		n = c.MaxPoints
	}
	return n
}
