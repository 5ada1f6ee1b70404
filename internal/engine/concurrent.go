package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SummarizeOptions controls optional behavior of batch summarization.
type SummarizeOptions struct {
	// Detailed adds extended statistics to every table report.
	Detailed bool
	// Workers bounds concurrent per-table summarization. Values <= 1 run
	// sequentially. Because each table is summarized independently and
	// reports are written by position, the result is identical to the
	// sequential path for any worker count.
	Workers int
}

// SummarizeBatchWithOptions summarizes every table in b honoring opts,
// preserving batch order in the resulting reports. ctx cancellation stops
// the work between tables; the first table error fails the whole call.
func SummarizeBatchWithOptions(ctx context.Context, b Batch, opts SummarizeOptions) (BatchReport, error) {
	if len(b) == 0 {
		return BatchReport{}, ErrEmptyBatch
	}

	reports := make([]TableReport, len(b))

	if opts.Workers <= 1 {
		for i, t := range b {
			if err := ctx.Err(); err != nil {
				return BatchReport{}, err
			}
			rep, err := summarizeTable(t, opts.Detailed)
			if err != nil {
				return BatchReport{}, fmt.Errorf("summarizing table %d: %w", i, err)
			}
			reports[i] = rep
		}
		return BatchReport{Reports: reports, Summary: buildBatchSummary(reports)}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, t := range b {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := summarizeTable(t, opts.Detailed)
			if err != nil {
				return fmt.Errorf("summarizing table %d: %w", i, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchReport{}, err
	}

	return BatchReport{Reports: reports, Summary: buildBatchSummary(reports)}, nil
}
