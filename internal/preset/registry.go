package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown preset name.
var ErrNotFound = errors.New("preset not found")

// row is one CSV record. Extra columns are ignored.
type row struct {
	Latitude  float64 `csv:"Latitude"`
	Longitude float64 `csv:"Longitude"`
}

// Parse decodes a preset CSV with Latitude and Longitude columns.
func Parse(data []byte) (geo.Path, error) {
	var rows []row
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode preset csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("preset has no points")
	}

	path := make(geo.Path, len(rows))
	for i, r := range rows {
		p := geo.Point{Lat: r.Latitude, Lng: r.Longitude}
		if !p.Valid() {
			return nil, fmt.Errorf("preset row %d: coordinate %s out of range", i+1, p)
		}
		path[i] = p
	}
	return path, nil
}

// Registry holds named preset segments.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]geo.Path
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]geo.Path)}
}

// LoadDir registers every *.csv in dir under its normalised file name, so
// "bridges_preset_route.csv" becomes "bridges". A missing dir is not an error.
func LoadDir(dir string) (*Registry, error) {
	r := NewRegistry()

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read preset %s: %w", f, err)
		}
		path, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", f, err)
		}
		name := Normalize(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
		r.Register(name, path)
		logger.Info("Loaded preset route",
			zap.String("name", name),
			zap.Int("points", len(path)),
			zap.Float64("miles", geo.MetersToMiles(geo.PathLength(path))),
		)
	}
	return r, nil
}

// Normalize lowercases a preset name and strips the conventional suffixes.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, "_preset_route")
	name = strings.TrimSuffix(name, "_preset")
	return name
}

// Register adds or replaces a preset.
func (r *Registry) Register(name string, path geo.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[Normalize(name)] = path
}

// Get returns a copy of the named preset.
func (r *Registry) Get(name string) (geo.Path, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.presets[Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return geo.Concat(path), nil
}

// Names lists registered presets in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.presets))
	for n := range r.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
