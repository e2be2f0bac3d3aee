package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahearnzach3/Where2Run/internal/routing"
)

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Generate a loop that starts and ends at the start point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := baseRequest(cmd)
		if err != nil {
			return err
		}
		if name, _ := cmd.Flags().GetString("preset"); name != "" {
			if req.Preset, err = app.Presets.Get(name); err != nil {
				return err
			}
		}
		res, err := app.Routes.Loop(cmd.Context(), req)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return writeResult(cmd, res, output)
	},
}

var outAndBackCmd = &cobra.Command{
	Use:   "out-and-back",
	Short: "Run out in a compass direction and come back",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := baseRequest(cmd)
		if err != nil {
			return err
		}
		req.Direction, _ = cmd.Flags().GetString("direction")
		res, err := app.Routes.OutAndBack(cmd.Context(), req)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return writeResult(cmd, res, output)
	},
}

var loopDestinationCmd = &cobra.Command{
	Use:   "loop-destination",
	Short: "Loop from the start, pass a destination and return",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := baseRequest(cmd)
		if err != nil {
			return err
		}
		if name, _ := cmd.Flags().GetString("preset"); name != "" {
			if req.Preset, err = app.Presets.Get(name); err != nil {
				return err
			}
		}
		dest, err := destinationPoint(cmd)
		if err != nil {
			return err
		}
		req.Destination = &dest
		res, err := app.Routes.LoopWithDestination(cmd.Context(), req)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return writeResult(cmd, res, output)
	},
}

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Route to a destination, then extend or turn it into a round trip",
	Long: "Finds the one-way route to the destination first. With --miles the route is " +
		"extended to that distance while still ending at the destination; --round-trip " +
		"returns to the start instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		start, err := startPoint(cmd)
		if err != nil {
			return err
		}
		dest, err := destinationPoint(cmd)
		if err != nil {
			return err
		}
		env, err := environmentFlag(cmd)
		if err != nil {
			return err
		}

		flow := routing.NewDestinationFlow(app.Routes)
		oneWay, err := flow.Route(cmd.Context(), start, dest, env)
		if err != nil {
			return err
		}
		if !oneWay.Found() {
			return errNoRoute
		}
		fmt.Fprintf(cmd.OutOrStdout(), "One-way distance: %.2f mi\n", flow.OneWayMiles())

		res := oneWay
		roundTrip, _ := cmd.Flags().GetBool("round-trip")
		miles, _ := cmd.Flags().GetFloat64("miles")
		attempts, _ := cmd.Flags().GetInt("max-attempts")
		switch {
		case roundTrip:
			res, err = flow.RoundTrip(cmd.Context())
		case miles > 0:
			res, err = flow.Extend(cmd.Context(), miles, attempts)
		}
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return writeResult(cmd, res, output)
	},
}

func init() {
	for _, c := range []*cobra.Command{loopCmd, outAndBackCmd, loopDestinationCmd} {
		c.Flags().Float64("miles", 3.0, "target distance in miles")
	}
	loopCmd.Flags().String("preset", "", "named preset segment to run first")
	loopDestinationCmd.Flags().String("preset", "", "named preset segment to run first")
	outAndBackCmd.Flags().String("direction", "N", "initial direction: N, E, S or W")

	for _, c := range []*cobra.Command{loopDestinationCmd, extendCmd} {
		c.Flags().String("dest", "", "destination coordinate as lat,lng")
		c.Flags().String("to", "", "destination address, geocoded when --dest is empty")
	}
	extendCmd.Flags().Float64("miles", 0, "extend the route to this many miles (0 = one-way only)")
	extendCmd.Flags().Bool("round-trip", false, "return to the start instead of extending")

	rootCmd.AddCommand(loopCmd, outAndBackCmd, loopDestinationCmd, extendCmd)
}
