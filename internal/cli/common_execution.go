package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/engine"
	"github.com/trialmetrics/trialstat/internal/ingest"
	"github.com/trialmetrics/trialstat/internal/logging"
)

// batchOptions bundles the knobs shared by every command that computes a
// batch report from input files.
type batchOptions struct {
	detailed  bool
	workers   int
	keepGoing bool
	screen    bool
	threshold float64
}

// batchResult is the outcome of the shared ingest/summarize/screen pipeline.
type batchResult struct {
	report   engine.BatchReport
	findings []engine.Finding
	skipped  []ingest.SkippedFile
}

// computeBatch discovers, loads, summarizes, and optionally screens the
// input files. It is the shared pipeline behind the analyze, plot, report,
// and tui commands.
func computeBatch(ctx context.Context, patterns []string, opts batchOptions) (batchResult, error) {
	log := logging.FromContext(ctx)

	paths, err := ingest.Discover(patterns)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Strs("patterns", patterns).Msg("failed to discover input files")
		return batchResult{}, fmt.Errorf("discovering input files: %w", err)
	}

	batch, skipped, err := ingest.LoadBatch(ctx, paths, ingest.LoadOptions{KeepGoing: opts.keepGoing})
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Int("file_count", len(paths)).Msg("failed to load batch")
		return batchResult{}, fmt.Errorf("loading input files: %w", err)
	}

	rep, err := engine.SummarizeBatchWithOptions(ctx, batch, engine.SummarizeOptions{
		Detailed: opts.detailed,
		Workers:  opts.workers,
	})
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Int("table_count", len(batch)).Msg("failed to summarize batch")
		return batchResult{}, fmt.Errorf("summarizing batch: %w", err)
	}
	log.Debug().Ctx(ctx).Int("table_count", len(rep.Reports)).Msg("batch summarized")

	var findings []engine.Finding
	if opts.screen {
		findings = engine.ScreenBatch(batch, rep, engine.ScreenOptions{
			HighThreshold:    opts.threshold,
			OutlierTolerance: config.GetAnalysisConfig().OutlierTolerance,
		})
		log.Debug().Ctx(ctx).Int("finding_count", len(findings)).Msg("batch screened")
	}

	return batchResult{report: rep, findings: findings, skipped: skipped}, nil
}

// reportSkippedFiles warns on stderr about input files dropped by --keep-going.
func reportSkippedFiles(cmd *cobra.Command, skipped []ingest.SkippedFile) {
	for _, s := range skipped {
		cmd.PrintErrf("Warning: skipped %s: %v\n", s.Path, s.Err)
	}
}

// writeRendered renders to stdout, or to outPath when set.
func writeRendered(cmd *cobra.Command, outPath string, render func(io.Writer) error) error {
	if outPath == "" {
		return render(cmd.OutOrStdout())
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", outPath, err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file %s: %w", outPath, err)
	}
	return nil
}

// Flag defaults are captured from the config before the project overlay is
// applied in the root PersistentPreRunE, so unchanged flags re-read the live
// configuration at execution time.

// effectiveThreshold returns the screening threshold, preferring an explicit
// --threshold flag over the configured default.
func effectiveThreshold(cmd *cobra.Command, flagValue float64) float64 {
	if cmd.Flags().Changed("threshold") {
		return flagValue
	}
	return config.GetAnalysisConfig().HighThreshold
}

// effectiveWorkers returns the summarization worker count, preferring an
// explicit --workers flag over the configured default.
func effectiveWorkers(cmd *cobra.Command, flagValue int) int {
	if cmd.Flags().Changed("workers") {
		return flagValue
	}
	return config.GetAnalysisConfig().Workers
}

// effectiveOutputFormat returns the output format, preferring an explicit
// --output flag over the configured default.
func effectiveOutputFormat(cmd *cobra.Command, flagValue string) string {
	if cmd.Flags().Changed("output") {
		return flagValue
	}
	return config.GetDefaultOutputFormat()
}
