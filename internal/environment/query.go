package environment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ahearnzach3/Where2Run/pkg/cache"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

// Mode is a category of surroundings the classifier can look for.
type Mode string

const (
	ModeTrail    Mode = "trail"
	ModeSuburban Mode = "suburban"
	ModeUrban    Mode = "urban"
	ModeScenic   Mode = "scenic"
	ModeShaded   Mode = "shaded"
)

// DefaultRadiusMeters is the search radius around the start point.
const DefaultRadiusMeters = 300

// Overpass way selectors per mode. %s is replaced by "radius,lat,lon".
var modeSelectors = map[Mode][]string{
	ModeTrail: {
		`way["highway"~"path|footway|bridleway"](around:%s);`,
		`way["surface"~"dirt|gravel|unpaved"](around:%s);`,
		`way["leisure"="park"](around:%s);`,
	},
	ModeSuburban: {
		`way["highway"="residential"](around:%s);`,
	},
	ModeUrban: {
		`way["highway"~"primary|secondary|tertiary"](around:%s);`,
	},
	ModeScenic: {
		`way["leisure"="park"](around:%s);`,
		`way["natural"~"wood|water"](around:%s);`,
		`way["tourism"~"viewpoint"](around:%s);`,
	},
	ModeShaded: {
		`way["natural"="wood"](around:%s);`,
		`way["landuse"="forest"](around:%s);`,
	},
}

// ParseMode normalises s and reports whether it names a known mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	_, ok := modeSelectors[m]
	return m, ok
}

// Query is one environment lookup.
type Query struct {
	Mode         Mode
	Point        geo.Point
	RadiusMeters int
}

// Render returns the Overpass QL text for the query. ok is false for an
// unknown mode.
func (q Query) Render() (string, bool) {
	selectors, ok := modeSelectors[q.Mode]
	if !ok {
		return "", false
	}

	radius := q.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	around := strconv.Itoa(radius) + "," + formatCoord(q.Point.Lat) + "," + formatCoord(q.Point.Lng)

	lines := make([]string, len(selectors))
	for i, sel := range selectors {
		lines[i] = fmt.Sprintf(sel, around)
	}

	return "[out:json][timeout:25];(" + strings.Join(lines, "\n") + ");out center;", true
}

// CacheKey is the hex SHA-256 of the rendered query. Identical queries
// always share a key.
func CacheKey(rendered string) string {
	return cache.HashKey("", rendered)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
