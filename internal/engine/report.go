package engine

import (
	"errors"
	"fmt"
)

// ErrReportValidation is returned when report type validation fails.
var ErrReportValidation = errors.New("report validation failed")

// ColumnSummary holds the aggregate statistics of a single table column.
type ColumnSummary struct {
	Column int     `json:"column"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
}

// Validate checks that the ColumnSummary fields are consistent.
func (c *ColumnSummary) Validate() error {
	if c.Column < 0 {
		return fmt.Errorf("%w: column index must be >= 0, got %d", ErrReportValidation, c.Column)
	}
	if c.Min > c.Max {
		return fmt.Errorf("%w: column %d min %g exceeds max %g", ErrReportValidation, c.Column, c.Min, c.Max)
	}
	if c.Mean < c.Min || c.Mean > c.Max {
		return fmt.Errorf("%w: column %d mean %g outside [%g, %g]",
			ErrReportValidation, c.Column, c.Mean, c.Min, c.Max)
	}
	return nil
}

// TableStats holds whole-table aggregates computed over every cell.
type TableStats struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// DetailedStats holds the extended whole-table statistics produced in
// detailed mode. Std is the sample standard deviation and is zero for a
// single-cell table, where the sample deviation is undefined. Median, Q1,
// and Q3 are empirical quantiles.
type DetailedStats struct {
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// TableReport is the derived summary of one table: per-column statistics in
// column order plus whole-table aggregates. Reports are snapshots; they hold
// no reference to the table they were computed from.
type TableReport struct {
	Source   string          `json:"source"`
	Rows     int             `json:"rows"`
	Cols     int             `json:"cols"`
	Columns  []ColumnSummary `json:"columns"`
	Table    TableStats      `json:"table"`
	Detailed *DetailedStats  `json:"detailed,omitempty"`
}

// Validate checks that the TableReport is internally consistent.
func (r *TableReport) Validate() error {
	if r.Source == "" {
		return fmt.Errorf("%w: source is required", ErrReportValidation)
	}
	if r.Rows <= 0 || r.Cols <= 0 {
		return fmt.Errorf("%w: %q has non-positive dimensions %dx%d",
			ErrReportValidation, r.Source, r.Rows, r.Cols)
	}
	if len(r.Columns) != r.Cols {
		return fmt.Errorf("%w: %q has %d column summaries, want %d",
			ErrReportValidation, r.Source, len(r.Columns), r.Cols)
	}
	for i := range r.Columns {
		if r.Columns[i].Column != i {
			return fmt.Errorf("%w: %q column summary %d is labelled %d",
				ErrReportValidation, r.Source, i, r.Columns[i].Column)
		}
		if err := r.Columns[i].Validate(); err != nil {
			return err
		}
	}
	if r.Table.Min > r.Table.Max {
		return fmt.Errorf("%w: %q table min %g exceeds max %g",
			ErrReportValidation, r.Source, r.Table.Min, r.Table.Max)
	}
	if r.Table.Mean < r.Table.Min || r.Table.Mean > r.Table.Max {
		return fmt.Errorf("%w: %q table mean %g outside [%g, %g]",
			ErrReportValidation, r.Source, r.Table.Mean, r.Table.Min, r.Table.Max)
	}
	return nil
}

// BatchSummary holds cross-table aggregates for a batch. MeanOfMeans,
// MaxOfMeans, and MinOfMeans are computed over the whole-table means of the
// member tables, so they are well-defined even when tables disagree on
// shape. Columns holds, for each column index, the mean/max/min across
// tables of that column's per-table mean; it is nil whenever the tables do
// not all share the same column count.
type BatchSummary struct {
	Tables      int             `json:"tables"`
	MeanOfMeans float64         `json:"meanOfMeans"`
	MaxOfMeans  float64         `json:"maxOfMeans"`
	MinOfMeans  float64         `json:"minOfMeans"`
	Columns     []ColumnSummary `json:"columns,omitempty"`
}

// BatchReport is the derived summary of a batch: one TableReport per input
// table, in input order, plus the cross-table summary.
type BatchReport struct {
	Reports []TableReport `json:"reports"`
	Summary BatchSummary  `json:"summary"`
}

// Validate checks that the BatchReport is internally consistent.
func (r *BatchReport) Validate() error {
	if len(r.Reports) == 0 {
		return fmt.Errorf("%w: batch report has no table reports", ErrReportValidation)
	}
	if r.Summary.Tables != len(r.Reports) {
		return fmt.Errorf("%w: summary counts %d tables, report has %d",
			ErrReportValidation, r.Summary.Tables, len(r.Reports))
	}
	for i := range r.Reports {
		if err := r.Reports[i].Validate(); err != nil {
			return fmt.Errorf("report %d: %w", i, err)
		}
	}
	if r.Summary.MinOfMeans > r.Summary.MaxOfMeans {
		return fmt.Errorf("%w: min of means %g exceeds max of means %g",
			ErrReportValidation, r.Summary.MinOfMeans, r.Summary.MaxOfMeans)
	}
	if r.Summary.MeanOfMeans < r.Summary.MinOfMeans || r.Summary.MeanOfMeans > r.Summary.MaxOfMeans {
		return fmt.Errorf("%w: mean of means %g outside [%g, %g]",
			ErrReportValidation, r.Summary.MeanOfMeans, r.Summary.MinOfMeans, r.Summary.MaxOfMeans)
	}
	return nil
}
