package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// MetersPerMile is the statute mile used for every distance conversion.
const MetersPerMile = 1609.34

// MilesToMeters converts statute miles to metres.
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// MetersToMiles converts metres to statute miles.
func MetersToMiles(meters float64) float64 {
	return meters / MetersPerMile
}

// Distance returns the great-circle distance in metres between two points.
func Distance(a, b Point) float64 {
	return orbgeo.Distance(a.Orb(), b.Orb())
}

// PathLength sums the great-circle distances between consecutive points of
// path, in metres. Paths with fewer than two points have zero length.
func PathLength(path Path) float64 {
	if len(path) < 2 {
		return 0
	}
	return orbgeo.Length(path.LineString())
}

// Midpoint returns the arithmetic mean of two points. It is only meaningful
// for points a few kilometres apart.
func Midpoint(a, b Point) Point {
	return Point{
		Lat: (a.Lat + b.Lat) / 2,
		Lng: (a.Lng + b.Lng) / 2,
	}
}

// Offset returns the point reached by travelling meters from p along the
// given compass bearing in degrees (0 = north, 90 = east).
func Offset(p Point, bearingDeg, meters float64) Point {
	return FromOrb(orbgeo.PointAtBearingAndDistance(p.Orb(), bearingDeg, meters))
}

// FromOrb converts an orb point ([lon, lat]) into a Point.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lng: p.Lon()}
}
