package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/logging"
	"github.com/trialmetrics/trialstat/pkg/version"
)

// StepStatus represents the outcome of a single setup step.
type StepStatus int

const (
	// StepSuccess indicates the step completed successfully.
	StepSuccess StepStatus = iota
	// StepWarning indicates the step completed with a non-fatal issue.
	StepWarning
	// StepSkipped indicates the step was intentionally skipped via flag.
	StepSkipped
	// StepError indicates the step failed.
	StepError
)

// StepResult describes the outcome of executing a single setup step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Message  string
	Critical bool
	Err      error
}

// SetupOptions holds the configuration for the setup command, derived from CLI flags.
type SetupOptions struct {
	NonInteractive bool
}

// SetupResult is the aggregate outcome of all setup steps.
type SetupResult struct {
	Steps       []StepResult
	HasErrors   bool
	HasWarnings bool
}

// dirPermBase is the permission mode for the base and log directories.
const dirPermBase = 0o700

// formatStatus returns a status marker appropriate for the output mode.
func formatStatus(status StepStatus, nonInteractive bool) string {
	if nonInteractive {
		switch status {
		case StepSuccess:
			return "[OK]"
		case StepWarning:
			return "[WARN]"
		case StepSkipped:
			return "[SKIP]"
		case StepError:
			return "[ERR]"
		default:
			return "[??]"
		}
	}

	switch status {
	case StepSuccess:
		return "✓" // ✓
	case StepWarning:
		return "!"
	case StepSkipped:
		return "-"
	case StepError:
		return "✗" // ✗
	default:
		return "?"
	}
}

// NewSetupCmd creates the top-level setup command that bootstraps the trialstat environment.
func NewSetupCmd() *cobra.Command {
	var opts SetupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Bootstrap the trialstat environment",
		Long: `Sets up the trialstat environment by creating the configuration and log
directories, initializing the configuration file, and validating the
effective configuration.

This command is idempotent — it is safe to run multiple times. Existing
configuration files are preserved.`,
		Example: `  # Full setup
  trialstat setup

  # CI/CD setup (no TTY-dependent output)
  trialstat setup --non-interactive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false,
		"Disable TTY-dependent output (status symbols, color)")

	return cmd
}

// runSetup orchestrates all setup steps using a collect-and-continue pattern.
// Each step is executed sequentially. Failures in one step do not prevent
// subsequent steps from running. The function returns an error only if a
// critical step fails.
func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log := logging.FromContext(ctx)

	// Auto-detect non-interactive mode when stdin is not a TTY
	if !opts.NonInteractive && !isTerminal(os.Stdin) {
		opts.NonInteractive = true
	}

	result := &SetupResult{}

	step := stepDisplayVersion()
	printStep(cmd, step, opts.NonInteractive)
	result.Steps = append(result.Steps, step)

	dirSteps := stepCreateDirectories()
	for _, s := range dirSteps {
		printStep(cmd, s, opts.NonInteractive)
		result.Steps = append(result.Steps, s)
	}

	step = stepInitConfig()
	printStep(cmd, step, opts.NonInteractive)
	result.Steps = append(result.Steps, step)

	step = stepValidateConfig(ctx)
	printStep(cmd, step, opts.NonInteractive)
	result.Steps = append(result.Steps, step)

	for _, s := range result.Steps {
		if s.Status == StepError && s.Critical {
			result.HasErrors = true
		}
		if s.Status == StepWarning {
			result.HasWarnings = true
		}
	}

	printSummary(cmd, result)

	if result.HasErrors {
		log.Error().
			Ctx(ctx).
			Str("component", "setup").
			Msg("setup completed with critical errors")
		return errors.New("setup failed: one or more critical steps failed")
	}

	return nil
}

// printStep outputs a single step's status line.
func printStep(cmd *cobra.Command, step StepResult, nonInteractive bool) {
	marker := formatStatus(step.Status, nonInteractive)
	cmd.Printf("%s %s\n", marker, step.Message)
}

// printSummary outputs the final completion message.
func printSummary(cmd *cobra.Command, result *SetupResult) {
	cmd.Println()
	if result.HasErrors {
		cmd.Println("Setup completed with errors. Review the messages above for remediation steps.")
	} else {
		cmd.Println("Setup complete! Run 'trialstat analyze data/*.csv' to get started.")
	}
}

// stepDisplayVersion prints the trialstat version and Go runtime info.
func stepDisplayVersion() StepResult {
	ver := version.GetVersion()
	goVer := runtime.Version()
	msg := fmt.Sprintf("trialstat v%s (%s)", ver, goVer)
	return StepResult{
		Name:    "Version display",
		Status:  StepSuccess,
		Message: msg,
	}
}

// stepCreateDirectories creates the required trialstat directories.
// Returns one StepResult per directory.
func stepCreateDirectories() []StepResult {
	baseDir, err := config.GetConfigDir()
	if err != nil {
		return []StepResult{{
			Name:     "Directory creation",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to resolve config directory: %v", err),
			Critical: true,
			Err:      err,
		}}
	}

	dirs := []string{
		baseDir,
		filepath.Join(baseDir, "logs"),
	}

	var results []StepResult
	for _, dir := range dirs {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			results = append(results, StepResult{
				Name:     "Directory creation",
				Status:   StepSuccess,
				Message:  fmt.Sprintf("Directory exists: %s", dir),
				Critical: true,
			})
			continue
		}

		if mkErr := os.MkdirAll(dir, dirPermBase); mkErr != nil {
			results = append(results, StepResult{
				Name:   "Directory creation",
				Status: StepError,
				Message: fmt.Sprintf(
					"Failed to create %s: %v\n  Try: export TRIALSTAT_HOME=/path/to/writable/directory",
					dir,
					mkErr,
				),
				Critical: true,
				Err:      mkErr,
			})
			continue
		}

		results = append(results, StepResult{
			Name:     "Directory creation",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Created %s", dir),
			Critical: true,
		})
	}

	return results
}

// stepInitConfig initializes the default config file if one does not exist.
func stepInitConfig() StepResult {
	baseDir, err := config.GetConfigDir()
	if err != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to resolve config directory: %v", err),
			Critical: true,
			Err:      err,
		}
	}
	configPath := filepath.Join(baseDir, "config.yaml")

	if _, statErr := os.Stat(configPath); statErr == nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Config already exists (%s)", configPath),
			Critical: true,
		}
	}

	cfg := config.DefaultConfig()
	cfg.SetConfigPath(configPath)
	if saveErr := cfg.Save(); saveErr != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to initialize config: %v", saveErr),
			Critical: true,
			Err:      saveErr,
		}
	}

	return StepResult{
		Name:     "Config initialization",
		Status:   StepSuccess,
		Message:  fmt.Sprintf("Initialized config (%s)", configPath),
		Critical: true,
	}
}

// stepValidateConfig validates the effective merged configuration.
func stepValidateConfig(ctx context.Context) StepResult {
	cfg := config.NewWithProjectDir(ctx, config.GetResolvedProjectDir())
	if err := cfg.Validate(); err != nil {
		return StepResult{
			Name:   "Config validation",
			Status: StepError,
			Message: fmt.Sprintf(
				"Configuration invalid: %v\n  Try: trialstat config validate",
				err,
			),
			Critical: true,
			Err:      err,
		}
	}

	return StepResult{
		Name:     "Config validation",
		Status:   StepSuccess,
		Message:  "Configuration valid",
		Critical: true,
	}
}
