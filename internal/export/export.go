package export

import (
	"errors"
	"fmt"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	// DefaultGPXFilename is the download name used by the HTTP and CLI surfaces.
	DefaultGPXFilename     = "Where2Run_route.gpx"
	DefaultGeoJSONFilename = "Where2Run_route.geojson"

	creator = "Where2Run"
)

// ErrEmptyPath is returned when there is nothing to export.
var ErrEmptyPath = errors.New("cannot export an empty route")

// GPX renders path as a GPX 1.1 document with one track and one segment.
func GPX(path geo.Path, name string) ([]byte, error) {
	if path.Empty() {
		return nil, ErrEmptyPath
	}

	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, len(path))}
	for i, p := range path {
		seg.Points[i] = gpx.GPXPoint{Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lng}}
	}

	doc := &gpx.GPX{
		Creator: creator,
		Name:    name,
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{seg},
		}},
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

// ParseGPX reads every track point of a GPX document in order.
func ParseGPX(data []byte) (geo.Path, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode gpx: %w", err)
	}

	var path geo.Path
	for _, track := range doc.Tracks {
		for _, seg := range track.Segments {
			for _, pt := range seg.Points {
				path = append(path, geo.Point{Lat: pt.Latitude, Lng: pt.Longitude})
			}
		}
	}
	if path.Empty() {
		return nil, ErrEmptyPath
	}
	return path, nil
}

// GeoJSON renders path as a FeatureCollection holding one LineString
// feature. Coordinates are [lon, lat].
func GeoJSON(path geo.Path, name string) ([]byte, error) {
	if path.Empty() {
		return nil, ErrEmptyPath
	}

	f := geojson.NewFeature(path.LineString())
	if name != "" {
		f.Properties["name"] = name
	}
	f.Properties["distance_meters"] = geo.PathLength(path)
	f.Properties["distance_miles"] = geo.MetersToMiles(geo.PathLength(path))

	fc := geojson.NewFeatureCollection()
	fc.Append(f)

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}
