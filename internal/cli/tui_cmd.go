package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
	"github.com/trialmetrics/trialstat/internal/engine"
	"github.com/trialmetrics/trialstat/internal/logging"
	"github.com/trialmetrics/trialstat/internal/tui"
)

// tuiParams holds the flag values for the tui command.
type tuiParams struct {
	keepGoing bool
}

// NewTuiCmd creates the tui command.
func NewTuiCmd() *cobra.Command {
	params := tuiParams{}

	cmd := &cobra.Command{
		Use:   "tui [file|glob]...",
		Short: "Browse a batch interactively in the terminal",
		Long: `Load CSV observation tables and browse the computed statistics in an
interactive terminal UI: sort and filter tables, page through large
batches, and inspect per-table detail and findings.`,
		Example: tuiExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeTui(cmd, args, params)
		},
	}

	cmd.Flags().BoolVar(&params.keepGoing, "keep-going", false,
		"Skip unreadable input files instead of failing the whole batch")

	return cmd
}

const tuiExample = `  # Browse a directory of tables
  trialstat tui data/*.csv

  # Browse whatever loads, skipping unreadable files
  trialstat tui --keep-going data/*.csv`

// executeTui runs the tui command. The batch is loaded and summarized inside
// the browser's fetcher so the loading spinner covers file I/O; skipped
// files surface in the log rather than on the alternate screen.
func executeTui(cmd *cobra.Command, patterns []string, params tuiParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if !isTerminal(os.Stdout) {
		return errors.New("tui requires an interactive terminal; use analyze for piped output")
	}

	analysisCfg := config.GetAnalysisConfig()
	fetch := func(ctx context.Context) (engine.BatchReport, []engine.Finding, error) {
		res, err := computeBatch(ctx, patterns, batchOptions{
			detailed:  true,
			workers:   analysisCfg.Workers,
			keepGoing: params.keepGoing,
			screen:    true,
			threshold: analysisCfg.HighThreshold,
		})
		if err != nil {
			return engine.BatchReport{}, nil, err
		}
		return res.report, res.findings, nil
	}

	log.Debug().Ctx(ctx).
		Str("operation", "tui").
		Strs("patterns", patterns).
		Msg("starting interactive browser")

	model := tui.NewBrowserModelWithLoading(ctx, fetch)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}

	log.Info().Ctx(ctx).Str("operation", "tui").Msg("interactive browser closed")
	return nil
}
