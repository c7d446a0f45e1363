// Package cmd provides the CLI commands for gridopf.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/logging"
	"github.com/katalvlaran/gridopf/settings"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Resolved by the root command before any subcommand runs.
	opts    *settings.Settings
	logger  = zap.NewNop()
	cleanup = func() {}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gridopf",
	Short: "Optimal power flow on MATPOWER-style cases",
	Long: `gridopf builds and solves DC, AC and IV optimal power flow programs.

Settings come from --config (YAML, JSON, TOML or "key value" lines) and
GRIDOPF_* environment variables.

Examples:
  gridopf solve case9.m
  gridopf solve --config dc.settings --output result.json case9.m
  gridopf violations --volts volts.txt case9.m`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI under ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnFinalize(func() { cleanup() })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(violationsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the settings, then the logger they route to.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		opts, err = settings.Load(cfgFile)
	} else {
		opts, err = settings.FromMap(nil)
	}
	if err != nil {
		return err
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logLevel
	cfg.Format = logFormat
	if opts.LogFile != "" {
		cfg.Output = opts.LogFile
	}
	l, done, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return err
	}
	logger, cleanup = l, done
	logger.Debug("settings loaded", zap.String("config", cfgFile), zap.Stringer("family", opts.Family()))

	return nil
}
