package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Point is a WGS84 coordinate in degrees. Internally every package works in
// (lat, lng) order; provider adapters convert at their boundary.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Orb returns the point as an orb.Point, which is ordered [lon, lat].
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Equal reports whether both coordinates are identical.
func (p Point) Equal(q Point) bool {
	return p.Lat == q.Lat && p.Lng == q.Lng
}

// Valid reports whether the point lies within the WGS84 coordinate range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lng)
}

// Path is an ordered sequence of points in traversal order. Consecutive
// duplicates are allowed; an empty path means "no route".
type Path []Point

// Empty reports whether the path has no points.
func (p Path) Empty() bool {
	return len(p) == 0
}

// Start returns the first point. ok is false for an empty path.
func (p Path) Start() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	return p[0], true
}

// End returns the last point. ok is false for an empty path.
func (p Path) End() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	return p[len(p)-1], true
}

// LineString converts the path to an orb.LineString.
func (p Path) LineString() orb.LineString {
	ls := make(orb.LineString, len(p))
	for i, pt := range p {
		ls[i] = pt.Orb()
	}
	return ls
}

// Concat joins paths in order into a freshly allocated path.
func Concat(paths ...Path) Path {
	n := 0
	for _, p := range paths {
		n += len(p)
	}
	out := make(Path, 0, n)
	for _, p := range paths {
		out = append(out, p...)
	}
	return out
}

// PathFromLineString converts an orb.LineString back to a Path.
func PathFromLineString(ls orb.LineString) Path {
	out := make(Path, len(ls))
	for i, pt := range ls {
		out[i] = FromOrb(pt)
	}
	return out
}
