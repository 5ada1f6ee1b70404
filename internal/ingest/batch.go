package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trialmetrics/trialstat/internal/engine"
	"github.com/trialmetrics/trialstat/internal/logging"
)

// ErrAllFilesFailed is returned by a keep-going load where no file loaded.
var ErrAllFilesFailed = errors.New("all input files failed to load")

// SkippedFile records one input file that failed to load during a
// keep-going batch load.
type SkippedFile struct {
	Path string
	Err  error
}

// LoadOptions controls batch loading policy.
type LoadOptions struct {
	// KeepGoing records and skips files that fail to load instead of
	// failing the whole batch on the first error.
	KeepGoing bool
}

// LoadBatch loads every path into a batch, preserving path order. The
// default policy is fail-fast: the first file error aborts the load. With
// KeepGoing the failing files are returned as skipped instead, and only a
// batch where every file failed is an error.
func LoadBatch(ctx context.Context, paths []string, opts LoadOptions) (engine.Batch, []SkippedFile, error) {
	if len(paths) == 0 {
		return nil, nil, ErrNoFiles
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	batch := make(engine.Batch, 0, len(paths))
	var skipped []SkippedFile
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		table, err := LoadTable(ctx, path)
		if err != nil {
			if !opts.KeepGoing {
				return nil, nil, err
			}
			log.Warn().Ctx(ctx).
				Str("component", "ingest").
				Str("path", path).
				Err(err).
				Msg("skipping file")
			skipped = append(skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		batch = append(batch, table)
	}

	if len(batch) == 0 {
		return nil, skipped, fmt.Errorf("%w: %d files", ErrAllFilesFailed, len(skipped))
	}

	log.Debug().Ctx(ctx).
		Str("component", "ingest").
		Int("tables", len(batch)).
		Int("skipped", len(skipped)).
		Dur("duration_ms", time.Since(start)).
		Msg("batch loaded")

	return batch, skipped, nil
}
