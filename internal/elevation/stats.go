package elevation

import (
	"math"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

const (
	FeetPerMeter = 3.28084
	FeetPerMile  = 5280

	// DefaultGradeWindow is the centred moving-average window for grades.
	DefaultGradeWindow = 5
)

// ProfilePoint is one sample along the route.
type ProfilePoint struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	DistanceMiles    float64 `json:"distance_miles"`
	ElevationFt      float64 `json:"elevation_ft"`
	CumulativeGainFt float64 `json:"cumulative_gain_ft"`
	// Relative is the elevation scaled to [0, 1] between the lowest and
	// highest sample, for colouring.
	Relative float64 `json:"relative"`
}

// GradePoint is the smoothed grade of the segment ending at DistanceMiles.
type GradePoint struct {
	DistanceMiles float64 `json:"distance_miles"`
	GradePercent  float64 `json:"grade_percent"`
}

// MileMarker is the first route point at or beyond a whole mile.
type MileMarker struct {
	Mile  int       `json:"mile"`
	Point geo.Point `json:"point"`
}

// Summary is the headline numbers of a run.
type Summary struct {
	DistanceMiles float64 `json:"distance_miles"`
	AscentFt      float64 `json:"ascent_ft"`
	DescentFt     float64 `json:"descent_ft"`
	NetChangeFt   float64 `json:"net_change_ft"`
}

// Profile is everything derived from a route and its elevation samples.
type Profile struct {
	Summary     Summary        `json:"summary"`
	Points      []ProfilePoint `json:"points"`
	Grade       []GradePoint   `json:"grade"`
	MileMarkers []MileMarker   `json:"mile_markers"`
}

// Build derives a Profile. Route distance and mile markers come from path;
// the elevation series comes from samples.
func Build(path geo.Path, samples []Sample, gradeWindow int) *Profile {
	ascent, descent := AscentDescent(samples)
	return &Profile{
		Summary: Summary{
			DistanceMiles: geo.MetersToMiles(geo.PathLength(path)),
			AscentFt:      ascent,
			DescentFt:     descent,
			NetChangeFt:   math.Abs(ascent - descent),
		},
		Points:      series(samples),
		Grade:       MovingAverageGrade(samples, gradeWindow),
		MileMarkers: MileMarkers(path),
	}
}

// AscentDescent sums the positive and negative height changes, in feet.
func AscentDescent(samples []Sample) (ascentFt, descentFt float64) {
	for i := 1; i < len(samples); i++ {
		d := samples[i].ElevationM - samples[i-1].ElevationM
		if d > 0 {
			ascentFt += d
		} else {
			descentFt -= d
		}
	}
	return ascentFt * FeetPerMeter, descentFt * FeetPerMeter
}

func cumulativeMiles(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		out[i] = out[i-1] + geo.MetersToMiles(geo.Distance(samples[i-1].Point, samples[i].Point))
	}
	return out
}

func series(samples []Sample) []ProfilePoint {
	if len(samples) == 0 {
		return nil
	}

	lo, hi := samples[0].ElevationM, samples[0].ElevationM
	for _, s := range samples {
		lo = math.Min(lo, s.ElevationM)
		hi = math.Max(hi, s.ElevationM)
	}

	miles := cumulativeMiles(samples)
	out := make([]ProfilePoint, len(samples))
	gain := 0.0
	for i, s := range samples {
		ft := s.ElevationM * FeetPerMeter
		if i > 0 {
			gain += math.Max(0, ft-samples[i-1].ElevationM*FeetPerMeter)
		}
		rel := 0.0
		if hi > lo {
			rel = (s.ElevationM - lo) / (hi - lo)
		}
		out[i] = ProfilePoint{
			Lat:              s.Lat,
			Lng:              s.Lng,
			DistanceMiles:    miles[i],
			ElevationFt:      ft,
			CumulativeGainFt: gain,
			Relative:         rel,
		}
	}
	return out
}

// MovingAverageGrade returns per-segment grades in percent smoothed with a
// centred rolling mean. Windows are truncated at the ends. Zero-length
// segments have a grade of 0.
func MovingAverageGrade(samples []Sample, window int) []GradePoint {
	if len(samples) < 2 {
		return nil
	}
	if window < 1 {
		window = 1
	}

	miles := cumulativeMiles(samples)
	raw := make([]float64, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		dFt := (samples[i].ElevationM - samples[i-1].ElevationM) * FeetPerMeter
		dMi := miles[i] - miles[i-1]
		if dMi > 0 {
			raw[i-1] = dFt / (dMi * FeetPerMile) * 100
		}
	}

	out := make([]GradePoint, len(raw))
	for i := range raw {
		hi := i + window/2
		lo := hi - window + 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(raw)-1 {
			hi = len(raw) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += raw[j]
		}
		out[i] = GradePoint{
			DistanceMiles: miles[i+1],
			GradePercent:  sum / float64(hi-lo+1),
		}
	}
	return out
}

// MileMarkers places at most one marker per route point, at the first point
// whose running distance reaches the next whole mile.
func MileMarkers(path geo.Path) []MileMarker {
	var out []MileMarker
	total := 0.0
	mile := 1
	for i := 1; i < len(path); i++ {
		total += geo.MetersToMiles(geo.Distance(path[i-1], path[i]))
		if total >= float64(mile) {
			out = append(out, MileMarker{Mile: mile, Point: path[i]})
			mile++
		}
	}
	return out
}

// Downsample keeps at most max points, evenly spaced, always including the
// first and last.
func Downsample(path geo.Path, max int) geo.Path {
	if max < 2 || len(path) <= max {
		return path
	}
	out := make(geo.Path, max)
	step := float64(len(path)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out[i] = path[int(math.Round(float64(i)*step))]
	}
	return out
}
