package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration (~/.trialstat/config.yaml plus any
project-local .trialstat/config.yaml overlay) for syntax and semantic
correctness.

This includes:
- Output format and precision
- Analysis thresholds and worker count
- Logging level and format`,
		Example: `  # Validate current configuration
  trialstat config validate

  # Validate and show the effective values
  trialstat config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic against the
// same merged view the other commands run with.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	// The tolerant loaders fall back to defaults on a corrupt file; probe
	// each file directly so syntax errors surface here instead.
	if err := checkConfigFileSyntax(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := config.NewWithProjectDir(cmd.Context(), config.GetResolvedProjectDir())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// checkConfigFileSyntax parses every config file that exists on this
// invocation: the global file, then any project-local overlay.
func checkConfigFileSyntax() error {
	var paths []string
	if dir, err := config.GetConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.yaml"))
	}
	if projectDir := config.GetResolvedProjectDir(); projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, "config.yaml"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		probe := config.DefaultConfig()
		if err := config.ShallowMergeYAML(probe, path); err != nil {
			return err
		}
	}
	return nil
}

// printVerboseDetails prints the effective configuration values.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Output precision: %d\n", cfg.Output.Precision)
	cmd.Printf("  High-reading threshold: %g\n", cfg.Analysis.HighThreshold)
	cmd.Printf("  Outlier tolerance: %g\n", cfg.Analysis.OutlierTolerance)
	cmd.Printf("  Workers: %d\n", cfg.Analysis.Workers)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Logging format: %s\n", cfg.Logging.Format)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	if projectDir := config.GetResolvedProjectDir(); projectDir != "" {
		cmd.Printf("  Project config dir: %s\n", projectDir)
	}
}
