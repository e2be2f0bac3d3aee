package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/cache"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"go.uber.org/zap"
)

const cachePrefix = "geocode:"

// Service resolves place names, trying each geocoder in order.
type Service struct {
	suggester Autocompleter
	geocoders []Geocoder
	cache     *cache.Manager
	ttl       time.Duration
}

// NewService creates a geocoding service. suggester and cache may be nil.
func NewService(suggester Autocompleter, geocoders []Geocoder, cache *cache.Manager, ttl time.Duration) *Service {
	return &Service{suggester: suggester, geocoders: geocoders, cache: cache, ttl: ttl}
}

// Suggest returns up to five places matching a partial query. A missing
// suggester yields no suggestions.
func (s *Service) Suggest(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" || s.suggester == nil {
		return []Place{}, nil
	}
	places, err := s.suggester.Suggest(ctx, query)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []Place{}
	}
	return places, nil
}

// Geocode resolves query to one place. Results are cached by normalised
// query text.
func (s *Service) Geocode(ctx context.Context, query string) (Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	key := cache.HashKey(cachePrefix, strings.ToLower(query))
	return cache.GetOrSet(ctx, s.cache, key, s.ttl, func(ctx context.Context) (Place, error) {
		return s.lookup(ctx, query)
	})
}

func (s *Service) lookup(ctx context.Context, query string) (Place, error) {
	var errs []error
	for _, g := range s.geocoders {
		place, err := g.Geocode(ctx, query)
		if err == nil {
			return place, nil
		}
		logger.WarnContext(ctx, "geocoder failed, trying next",
			zap.String("geocoder", fmt.Sprintf("%T", g)),
			zap.Error(err),
		)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return Place{}, fmt.Errorf("%w: no geocoders configured", ErrNotConfigured)
	}
	allNotFound := true
	for _, err := range errs {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotConfigured) {
			allNotFound = false
		}
	}
	if allNotFound {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return Place{}, errors.Join(errs...)
}
