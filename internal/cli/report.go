package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/logging"
	"github.com/trialmetrics/trialstat/internal/report"
)

// reportParams holds the flag values for the report command.
type reportParams struct {
	out       string
	title     string
	noPlots   bool
	keepGoing bool
}

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	params := reportParams{}

	cmd := &cobra.Command{
		Use:   "report [file|glob]...",
		Short: "Produce a PDF report for a batch of tables",
		Long: `Load CSV observation tables and compose a PDF document with the batch
summary, per-table statistics including distribution measures, screening
findings, and embedded plots.`,
		Example: reportExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd, args, params)
		},
	}

	cmd.Flags().StringVar(&params.out, "out", "report.pdf", "Path of the PDF file to write")
	cmd.Flags().StringVar(&params.title, "title", "", "Document title (defaults to a generic heading)")
	cmd.Flags().BoolVar(&params.noPlots, "no-plots", false, "Omit embedded plots from the document")
	cmd.Flags().BoolVar(&params.keepGoing, "keep-going", false,
		"Skip unreadable input files instead of failing the whole batch")

	return cmd
}

const reportExample = `  # PDF report for a whole directory
  trialstat report data/*.csv --out phase2.pdf --title "Phase II interim"

  # Text-only document, tolerating unreadable files
  trialstat report data/*.csv --no-plots --keep-going`

// executeReport runs the report command.
func executeReport(cmd *cobra.Command, patterns []string, params reportParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	start := time.Now()

	log.Debug().Ctx(ctx).
		Str("operation", "report").
		Strs("patterns", patterns).
		Str("out", params.out).
		Msg("starting report composition")

	analysisCfg := config.GetAnalysisConfig()
	res, err := computeBatch(ctx, patterns, batchOptions{
		detailed:  true,
		workers:   analysisCfg.Workers,
		keepGoing: params.keepGoing,
		screen:    true,
		threshold: analysisCfg.HighThreshold,
	})
	if err != nil {
		return err
	}
	reportSkippedFiles(cmd, res.skipped)

	var plots map[string][]byte
	if !params.noPlots {
		// Mark the same threshold on the plots that screening used for the
		// findings section, so the document reads consistently.
		plots, err = renderReportPlots(res, report.PlotOptions{Threshold: analysisCfg.HighThreshold})
		if err != nil {
			return err
		}
	}

	pdfOpts := report.PDFOptions{
		Title:     params.title,
		Version:   cmd.Root().Version,
		Precision: config.GetOutputPrecision(),
		Plots:     plots,
	}
	err = writeRendered(cmd, params.out, func(w io.Writer) error {
		return report.WritePDF(w, res.report, res.findings, pdfOpts)
	})
	if err != nil {
		return err
	}

	if params.out != "" {
		cmd.Printf("Wrote report to %s\n", params.out)
	}

	log.Info().Ctx(ctx).
		Str("operation", "report").
		Int("table_count", len(res.report.Reports)).
		Int("finding_count", len(res.findings)).
		Int("plot_count", len(plots)).
		Dur("duration_ms", time.Since(start)).
		Msg("report composition complete")

	return nil
}

// renderReportPlots renders the per-table plots plus the batch overview,
// keyed for PDFOptions.Plots.
func renderReportPlots(res batchResult, opts report.PlotOptions) (map[string][]byte, error) {
	plots := make(map[string][]byte, len(res.report.Reports)+1)
	for _, rep := range res.report.Reports {
		png, err := report.PlotTable(rep, opts)
		if err != nil {
			return nil, fmt.Errorf("plotting %s: %w", rep.Source, err)
		}
		plots[report.TablePlotKey(rep.Source)] = png
	}
	png, err := report.PlotBatch(res.report, opts)
	if err != nil {
		return nil, fmt.Errorf("plotting batch overview: %w", err)
	}
	plots[report.BatchPlotKey] = png
	return plots, nil
}
