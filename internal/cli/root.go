package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the trialstat CLI.
// It wires up configuration resolution, logging, and the analyze, plot,
// report, tui, and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit env lookup for
// testability. This allows tests to inject environment variables without
// mutating the process environment.
func NewRootCmdWithEnv(ver string, lookupEnv func(string) (string, bool)) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "trialstat",
		Short:   "Statistics and screening for tabular trial observations",
		Long:    "trialstat: Summarize, screen, plot, and report on CSV observation tables",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Validate --project-dir before resolution so a typo fails loudly
			// instead of silently falling back to the global config.
			projectFlag, _ := cmd.Flags().GetString("project-dir")
			if projectFlag != "" {
				info, statErr := os.Stat(projectFlag)
				if statErr != nil || !info.IsDir() {
					return fmt.Errorf("project-dir %q is not a directory", projectFlag)
				}
			}

			startDir, err := os.Getwd()
			if err != nil {
				startDir = "."
			}
			projectDir := config.ResolveProjectDir(cmd.Context(), projectFlag, startDir)
			config.SetResolvedProjectDir(projectDir)
			config.InitGlobalConfigWithProject(cmd.Context(), projectDir)
			if cfg := config.GetGlobalConfig(); cfg != nil {
				cfg.ApplyEnvOverrides(lookupEnv)
			}

			result := setupLogging(cmd, lookupEnv)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().
		String("project-dir", "", "project directory containing .trialstat/ (auto-detected when omitted)")
	cmd.AddCommand(NewAnalyzeCmd(), NewPlotCmd(), NewReportCmd(), NewTuiCmd(), NewSetupCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Summarize every table in a directory
  trialstat analyze data/*.csv

  # Detailed statistics as JSON, without screening
  trialstat analyze --detailed --output json --no-screen data/*.csv

  # Keep going past unreadable files, four tables at a time
  trialstat analyze --keep-going --workers 4 data/*.csv

  # Render a PNG plot per table plus a batch overview
  trialstat plot data/*.csv --out plots --batch

  # Produce a PDF report
  trialstat report data/*.csv --out report.pdf --title "Phase II interim"

  # Browse a batch interactively
  trialstat tui data/*.csv

  # Initialize configuration
  trialstat config init`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())
	return cmd
}
