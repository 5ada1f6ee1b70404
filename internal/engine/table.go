// Package engine implements the trialstat aggregation core: immutable
// observation tables and the pure functions that reduce them to per-column,
// whole-table, and cross-table statistics. Functions in this package perform
// no I/O; parsing belongs to internal/ingest and formatting to the render
// layer.
package engine

import (
	"errors"
	"fmt"
	"math"
)

// Aggregation and construction errors.
var (
	// ErrEmptyTable is returned when a table has zero rows or zero columns.
	ErrEmptyTable = errors.New("table has no data")
	// ErrEmptyBatch is returned when a batch contains no tables.
	ErrEmptyBatch = errors.New("batch has no tables")
	// ErrRaggedRows is returned when rows have unequal lengths at construction.
	ErrRaggedRows = errors.New("rows have unequal lengths")
	// ErrNotFinite is returned when a cell is NaN or infinite at construction.
	ErrNotFinite = errors.New("cell is not finite")
)

// Table is an immutable numeric observation grid: one row per subject, one
// column per time-ordered observation. Every row has the same length, both
// dimensions are at least one, and every cell is finite. The zero value is
// unusable; construct with New.
type Table struct {
	source string
	cells  [][]float64
}

// New validates values and returns a Table tagged with source. The values
// are deep-copied, so later mutation of the caller's slices cannot change
// the table.
//
// Validation failures return ErrEmptyTable (zero rows or zero columns),
// ErrRaggedRows (rows of unequal length), or ErrNotFinite (NaN or infinite
// cells). Negative values are valid data: they are preserved here and
// surfaced as anomalies by screening, not rejected as parse errors.
func New(source string, values [][]float64) (*Table, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %q has no rows", ErrEmptyTable, source)
	}
	cols := len(values[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: %q has no columns", ErrEmptyTable, source)
	}

	cells := make([][]float64, len(values))
	for r, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: %q row %d has %d values, want %d",
				ErrRaggedRows, source, r, len(row), cols)
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %q row %d, column %d", ErrNotFinite, source, r, c)
			}
		}
		cells[r] = append([]float64(nil), row...)
	}

	return &Table{source: source, cells: cells}, nil
}

// Source returns the identifier the table was tagged with at construction,
// typically the base name of the file it was loaded from.
func (t *Table) Source() string {
	return t.source
}

// Rows returns the number of rows (subjects).
func (t *Table) Rows() int {
	return len(t.cells)
}

// Cols returns the number of columns (observations per subject).
func (t *Table) Cols() int {
	if len(t.cells) == 0 {
		return 0
	}
	return len(t.cells[0])
}

// At returns the cell at row r, column c. Indices out of range panic, as
// with direct slice access.
func (t *Table) At(r, c int) float64 {
	return t.cells[r][c]
}

// Row returns a copy of row r.
func (t *Table) Row(r int) []float64 {
	return append([]float64(nil), t.cells[r]...)
}

// Column returns a copy of column c.
func (t *Table) Column(c int) []float64 {
	col := make([]float64, len(t.cells))
	for r := range t.cells {
		col[r] = t.cells[r][c]
	}
	return col
}

// Values returns a deep copy of the full grid.
func (t *Table) Values() [][]float64 {
	values := make([][]float64, len(t.cells))
	for r := range t.cells {
		values[r] = append([]float64(nil), t.cells[r]...)
	}
	return values
}

// flatten returns all cells in row-major order.
func (t *Table) flatten() []float64 {
	flat := make([]float64, 0, t.Rows()*t.Cols())
	for _, row := range t.cells {
		flat = append(flat, row...)
	}
	return flat
}

// Batch is an ordered sequence of tables, usually one per input file.
// Order is preserved through summarization: BatchReport.Reports[i] always
// describes the table at position i.
type Batch []*Table
