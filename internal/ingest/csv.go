package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/trialmetrics/trialstat/internal/engine"
	"github.com/trialmetrics/trialstat/internal/logging"
)

// ParseTable reads CSV data from r into a table tagged with source. Every
// record must hold the same number of fields (ragged records are parse
// errors, reported with their line number) and every field must parse as a
// float64. Blank lines are skipped.
func ParseTable(r io.Reader, source string) (*engine.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	values := make([][]float64, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, field := range record {
			v, parseErr := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if parseErr != nil {
				return nil, fmt.Errorf("row %d, column %d: parsing %q: %w", i+1, j+1, field, parseErr)
			}
			row[j] = v
		}
		values[i] = row
	}

	table, err := engine.New(source, values)
	if err != nil {
		return nil, fmt.Errorf("validating table: %w", err)
	}
	return table, nil
}

// LoadTable reads one CSV file into a table. The table's source identifier
// is the file's base name.
func LoadTable(ctx context.Context, path string) (*engine.Table, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	table, err := ParseTable(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	log.Debug().Ctx(ctx).
		Str("component", "ingest").
		Str("path", path).
		Int("rows", table.Rows()).
		Int("cols", table.Cols()).
		Dur("duration_ms", time.Since(start)).
		Msg("table loaded")

	return table, nil
}
