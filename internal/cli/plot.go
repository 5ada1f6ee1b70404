package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/logging"
	"github.com/trialmetrics/trialstat/internal/report"
)

// plotParams holds the flag values for the plot command.
type plotParams struct {
	outDir    string
	batch     bool
	threshold float64
	keepGoing bool
}

// NewPlotCmd creates the plot command.
func NewPlotCmd() *cobra.Command {
	params := plotParams{}

	cmd := &cobra.Command{
		Use:   "plot [file|glob]...",
		Short: "Render PNG plots of per-column statistics",
		Long: `Load CSV observation tables and render one PNG per table charting the
per-column mean, max, and min over the column index. With --batch an
additional overview plot compares table means across the whole batch.`,
		Example: plotExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePlot(cmd, args, params)
		},
	}

	cmd.Flags().StringVar(&params.outDir, "out", ".", "Directory to write PNG files into")
	cmd.Flags().BoolVar(&params.batch, "batch", false, "Also render a batch overview plot (batch.png)")
	cmd.Flags().Float64Var(&params.threshold, "threshold", 0,
		"Draw a dashed marker line at this value (0 = no line)")
	cmd.Flags().BoolVar(&params.keepGoing, "keep-going", false,
		"Skip unreadable input files instead of failing the whole batch")

	return cmd
}

const plotExample = `  # One PNG per table in the current directory
  trialstat plot data/*.csv

  # Plots plus a batch overview, with the screening threshold marked
  trialstat plot data/*.csv --out plots --batch --threshold 5`

// executePlot runs the plot command.
func executePlot(cmd *cobra.Command, patterns []string, params plotParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	start := time.Now()

	log.Debug().Ctx(ctx).
		Str("operation", "plot").
		Strs("patterns", patterns).
		Str("out_dir", params.outDir).
		Msg("starting plot rendering")

	res, err := computeBatch(ctx, patterns, batchOptions{
		keepGoing: params.keepGoing,
	})
	if err != nil {
		return err
	}
	reportSkippedFiles(cmd, res.skipped)

	if err := os.MkdirAll(params.outDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory %s: %w", params.outDir, err)
	}

	plotOpts := report.PlotOptions{Threshold: params.threshold}
	written := 0
	for _, rep := range res.report.Reports {
		png, plotErr := report.PlotTable(rep, plotOpts)
		if plotErr != nil {
			return fmt.Errorf("plotting %s: %w", rep.Source, plotErr)
		}
		path := filepath.Join(params.outDir, plotFileName(rep.Source))
		if writeErr := writePNG(path, png); writeErr != nil {
			return writeErr
		}
		written++
	}

	if params.batch {
		png, plotErr := report.PlotBatch(res.report, plotOpts)
		if plotErr != nil {
			return fmt.Errorf("plotting batch overview: %w", plotErr)
		}
		path := filepath.Join(params.outDir, "batch.png")
		if writeErr := writePNG(path, png); writeErr != nil {
			return writeErr
		}
		written++
	}

	cmd.Printf("Wrote %d plot(s) to %s\n", written, params.outDir)

	log.Info().Ctx(ctx).
		Str("operation", "plot").
		Int("plot_count", written).
		Str("out_dir", params.outDir).
		Dur("duration_ms", time.Since(start)).
		Msg("plot rendering complete")

	return nil
}

// plotFileName maps a table source to its PNG file name. Sources sharing a
// base name produce the same file name; the later plot wins.
func plotFileName(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".png"
}

func writePNG(path string, png []byte) error {
	//nolint:gosec // Plot images are world-readable artifacts.
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("writing plot %s: %w", path, err)
	}
	return nil
}
