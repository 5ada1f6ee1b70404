package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/logging"
)

// setupLogging configures logging based on config file, environment, and CLI
// flags, and installs the logger plus a run ID into the command context. The
// returned result carries any open log file handle for cleanupLogging.
func setupLogging(cmd *cobra.Command, lookupEnv func(string) (string, bool)) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}

	if envLevel, ok := lookupEnv(config.EnvLogLevel); ok && envLevel != "" && !debug {
		loggingCfg.Level = envLevel
	}
	if envFormat, ok := lookupEnv(config.EnvLogFormat); ok && envFormat != "" {
		loggingCfg.Format = envFormat
	}

	// Ensure log directory exists after all overrides have been applied.
	if loggingCfg.File != "" {
		if err := config.EnsureLogDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	runID := logging.GetOrGenerateRunID(ctx)
	ctx = logging.ContextWithRunID(ctx, runID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().Ctx(ctx).Str("command", cmd.Name()).Str("run_id", runID).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle opened during setup, if any.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
