// Package cmd implements the yojitsu CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/app"
	"github.com/derickschaefer/yojitsu/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Format   string
	Out      string
	DBPath   string
	Timezone string
	Quiet    bool
	Verbose  bool
	Debug    bool
}

// rootCmd is the base command. Running `yojitsu` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "yojitsu",
	Short: "yojitsu — arrival/shipment plan vs. actual dashboard charts",
	Long: `yojitsu turns warehouse plan and actual records into dashboard charts.

Records are JSONL lines (one arrival or shipment line each). Import them into
the local store, or pass files directly, then aggregate them into hourly or
daily buckets and draw line, bar and progress charts as tables, SVG or
interactive HTML. Dashboard pages are laid out on a grid of slots.

Quick start:
  yojitsu config init                                   # create a config.json
  yojitsu import arrival --kind plan plans.jsonl        # store the day's plan
  yojitsu import arrival --kind actual actuals.jsonl    # store the actuals
  yojitsu aggregate --page arrival                      # hourly plan/actual table
  yojitsu chart line --page arrival --svg arrival.svg   # draw the line chart
  yojitsu progress --page arrival                       # progress against plan`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute is the entry point called by main.
func Execute() {
	registerCompletions()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogging routes slog to stderr. --debug lowers the level to debug;
// otherwise only warnings and errors are logged.
func setupLogging() {
	level := slog.LevelWarn
	if globalFlags.Debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(config.Flags{
		Format:   globalFlags.Format,
		DBPath:   globalFlags.DBPath,
		Timezone: globalFlags.Timezone,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	slog.Debug("config resolved", "file", cfg.ConfigPath, "db", cfg.DBPath, "tz", cfg.Timezone)
	return app.New(cfg)
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|yaml (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.DBPath, "db", "",
		"record store path (overrides env YOJITSU_DB_PATH and config.json)")
	pf.StringVar(&globalFlags.Timezone, "tz", "",
		"IANA timezone for bucketing and \"now\" (default: Asia/Tokyo)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show item counts and timing after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log store access and export steps to stderr")
}
