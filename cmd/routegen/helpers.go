package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahearnzach3/Where2Run/internal/export"
	"github.com/ahearnzach3/Where2Run/internal/geocoding"
	"github.com/ahearnzach3/Where2Run/internal/profile"
	"github.com/ahearnzach3/Where2Run/internal/routing"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
)

type placeResolver interface {
	Geocode(ctx context.Context, query string) (geocoding.Place, error)
}

// parsePoint reads "lat,lng".
func parsePoint(s string) (geo.Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, fmt.Errorf("coordinate %q: want lat,lng", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	p := geo.Point{Lat: la, Lng: ln}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return p, nil
}

// resolvePoint prefers explicit coordinates and falls back to geocoding.
func resolvePoint(ctx context.Context, places placeResolver, coords, address, what string) (geo.Point, error) {
	if strings.TrimSpace(coords) != "" {
		return parsePoint(coords)
	}
	if strings.TrimSpace(address) == "" {
		return geo.Point{}, fmt.Errorf("%s: coordinates or an address are required", what)
	}
	place, err := places.Geocode(ctx, address)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%s: %w", what, err)
	}
	return place.Point, nil
}

func startPoint(cmd *cobra.Command) (geo.Point, error) {
	coords, _ := cmd.Flags().GetString("start")
	address, _ := cmd.Flags().GetString("from")
	return resolvePoint(cmd.Context(), app.Geocoding, coords, address, "start")
}

func destinationPoint(cmd *cobra.Command) (geo.Point, error) {
	coords, _ := cmd.Flags().GetString("dest")
	address, _ := cmd.Flags().GetString("to")
	return resolvePoint(cmd.Context(), app.Geocoding, coords, address, "destination")
}

func environmentFlag(cmd *cobra.Command) (profile.Environment, error) {
	v, _ := cmd.Flags().GetString("environment")
	env, ok := profile.ParseEnvironment(v)
	if !ok {
		return "", fmt.Errorf("unknown environment %q", v)
	}
	return env, nil
}

// baseRequest collects the flags every distance-targeted command shares.
func baseRequest(cmd *cobra.Command) (routing.Request, error) {
	start, err := startPoint(cmd)
	if err != nil {
		return routing.Request{}, err
	}
	env, err := environmentFlag(cmd)
	if err != nil {
		return routing.Request{}, err
	}
	miles, _ := cmd.Flags().GetFloat64("miles")
	attempts, _ := cmd.Flags().GetInt("max-attempts")
	return routing.Request{
		Start:         start,
		DistanceMiles: miles,
		Environment:   env,
		MaxAttempts:   attempts,
	}, nil
}

var errNoRoute = errors.New("could not generate a route, try a different start point or distance")

// writeResult saves res as GPX and prints a one-line summary.
func writeResult(cmd *cobra.Command, res *routing.Result, output string) error {
	if res == nil || !res.Found() {
		return errNoRoute
	}
	data, err := export.GPX(res.Path, "Where2Run "+string(res.Variant))
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	out := cmd.OutOrStdout()
	if res.Notice != "" {
		fmt.Fprintln(out, res.Notice)
	}
	fmt.Fprintf(out, "%s route: %.2f mi, %d points, %s after %d attempt(s) -> %s\n",
		res.Variant, res.DistanceMiles, len(res.Path), res.Status, res.Attempts, output)
	if res.Status == routing.StatusBestEffort {
		fmt.Fprintf(out, "Closest route found is %.2f mi; requested %.2f mi.\n",
			res.DistanceMiles, geo.MetersToMiles(res.TargetMeters))
	}
	return nil
}
