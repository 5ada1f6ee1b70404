package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/engine"
	"github.com/trialmetrics/trialstat/internal/logging"
)

// analyzeParams holds the flag values for the analyze command.
type analyzeParams struct {
	output           string
	out              string
	detailed         bool
	threshold        float64
	keepGoing        bool
	workers          int
	noScreen         bool
	failOnFindings   bool
	findingsExitCode int
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	params := analyzeParams{}

	cmd := &cobra.Command{
		Use:   "analyze [file|glob]...",
		Short: "Summarize and screen observation tables",
		Long: `Load CSV observation tables, compute per-column and whole-table
statistics, screen every table for notable findings, and render the
batch report in the requested format.`,
		Example: analyzeExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeAnalyze(cmd, args, params)
		},
	}

	cmd.Flags().StringVar(&params.output, "output", config.GetDefaultOutputFormat(),
		"Output format: table, json, ndjson, or csv")
	cmd.Flags().StringVar(&params.out, "out", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&params.detailed, "detailed", false,
		"Include distribution statistics (std, median, quartiles) per table")
	cmd.Flags().Float64Var(&params.threshold, "threshold", config.GetAnalysisConfig().HighThreshold,
		"Screening level above which readings count as high")
	cmd.Flags().BoolVar(&params.keepGoing, "keep-going", false,
		"Skip unreadable input files instead of failing the whole batch")
	cmd.Flags().IntVar(&params.workers, "workers", config.GetAnalysisConfig().Workers,
		"Concurrent table summarizations (0 or 1 = sequential)")
	cmd.Flags().BoolVar(&params.noScreen, "no-screen", false, "Skip screening for findings")
	cmd.Flags().BoolVar(&params.failOnFindings, "fail-on-findings", false,
		"Exit with a non-zero code when screening produces findings")
	cmd.Flags().IntVar(&params.findingsExitCode, "findings-exit-code", 2,
		"Exit code when --fail-on-findings triggers (0 = warn only)")

	return cmd
}

const analyzeExample = `  # Table report for a single file
  trialstat analyze trial-a.csv

  # A whole directory as JSON with distribution statistics
  trialstat analyze --output json --detailed data/*.csv

  # One NDJSON line per table, custom high-reading threshold
  trialstat analyze --output ndjson --threshold 9.5 data/*.csv`

// executeAnalyze runs the analyze command.
func executeAnalyze(cmd *cobra.Command, patterns []string, params analyzeParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	start := time.Now()

	format := effectiveOutputFormat(cmd, params.output)
	if err := validateOutputFormat(format); err != nil {
		return err
	}

	log.Debug().Ctx(ctx).
		Str("operation", "analyze").
		Strs("patterns", patterns).
		Str("format", format).
		Bool("detailed", params.detailed).
		Msg("starting batch analysis")

	res, err := computeBatch(ctx, patterns, batchOptions{
		detailed:  params.detailed,
		workers:   effectiveWorkers(cmd, params.workers),
		keepGoing: params.keepGoing,
		screen:    !params.noScreen,
		threshold: effectiveThreshold(cmd, params.threshold),
	})
	if err != nil {
		return err
	}
	reportSkippedFiles(cmd, res.skipped)

	renderOpts := engine.RenderOptions{
		Precision: config.GetOutputPrecision(),
		RunID:     logging.RunIDFromContext(ctx),
		Version:   cmd.Root().Version,
	}
	err = writeRendered(cmd, params.out, func(w io.Writer) error {
		return renderBatch(w, format, res.report, res.findings, renderOpts)
	})
	if err != nil {
		return err
	}

	log.Info().Ctx(ctx).
		Str("operation", "analyze").
		Int("table_count", len(res.report.Reports)).
		Int("finding_count", len(res.findings)).
		Int("skipped_count", len(res.skipped)).
		Str("format", format).
		Dur("duration_ms", time.Since(start)).
		Msg("batch analysis complete")

	return checkFindingsExit(cmd, params, res.findings)
}

// FindingsExitError is a sentinel error that carries an exit code for
// screening findings. It lets main map a --fail-on-findings failure onto
// the requested process exit code.
type FindingsExitError struct {
	ExitCode int
	Reason   string
}

func (e *FindingsExitError) Error() string {
	return e.Reason
}

// checkFindingsExit evaluates whether the CLI should exit non-zero because
// screening produced findings. An exit code of 0 means warn but don't fail.
func checkFindingsExit(cmd *cobra.Command, params analyzeParams, findings []engine.Finding) error {
	if !params.failOnFindings || len(findings) == 0 {
		return nil
	}

	reason := fmt.Sprintf("screening produced %d finding(s)", len(findings))
	if params.findingsExitCode == 0 {
		cmd.PrintErrf("WARNING: %s\n", reason)
		return nil
	}

	return &FindingsExitError{
		ExitCode: params.findingsExitCode,
		Reason:   reason,
	}
}

// validateOutputFormat rejects format values renderBatch cannot route.
func validateOutputFormat(format string) error {
	switch format {
	case "table", "json", "ndjson", "csv":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (expected table, json, ndjson, or csv)", format)
	}
}

// renderBatch routes a computed batch report to the writer in the requested
// format. The format must have passed validateOutputFormat.
func renderBatch(w io.Writer, format string, rep engine.BatchReport, findings []engine.Finding, opts engine.RenderOptions) error {
	switch format {
	case "json":
		return engine.RenderBatchAsJSON(w, rep, findings, opts)
	case "ndjson":
		return engine.RenderBatchAsNDJSON(w, rep)
	case "csv":
		return engine.RenderBatchAsCSV(w, rep)
	default:
		return engine.RenderBatchAsTable(w, rep, findings, opts)
	}
}
