package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahearnzach3/Where2Run/internal/bootstrap"
	"github.com/ahearnzach3/Where2Run/internal/export"
	"github.com/ahearnzach3/Where2Run/pkg/config"
	"github.com/ahearnzach3/Where2Run/pkg/logger"
)

const serviceName = "where2run-routegen"

var app *bootstrap.App

var rootCmd = &cobra.Command{
	Use:   "routegen",
	Short: "Generate running routes of a set distance",
	Long:  "Generates loop, out-and-back and destination running routes through OpenRouteService and writes them as GPX.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(serviceName)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.Init(cfg.Server.Environment, serviceName, logLevel(cmd, cfg.Server.LogLevel)); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a, err := bootstrap.New(cfg)
		if err != nil {
			return fmt.Errorf("init services: %w", err)
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if app != nil {
			app.Close()
		}
		_ = logger.Sync()
	},
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringP("output", "o", export.DefaultGPXFilename, "GPX file to write")
	f.String("environment", "", "preferred surroundings: Prefer Trails, Suburban, Urban, Scenic or Shaded")
	f.Int("max-attempts", 0, "override the attempt budget (0 = default)")
	f.String("start", "", "start coordinate as lat,lng")
	f.String("from", "", "start address, geocoded when --start is empty")
	f.BoolP("verbose", "v", false, "log every search attempt")
}

// logLevel is debug with --verbose, otherwise LOG_LEVEL, otherwise warn.
func logLevel(cmd *cobra.Command, configured string) string {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return "debug"
	}
	if configured != "" {
		return configured
	}
	return "warn"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
