package engine

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SummarizeTable reduces a table to its per-column summaries and whole-table
// aggregates. Means are computed in a single linear pass as sum over count
// in float64, without compensated summation; max and min follow the float64
// total order, with ties going to the first occurrence. A nil table returns
// ErrEmptyTable.
//
// The function is pure: the same table always yields a bit-identical report,
// and the table is never modified.
func SummarizeTable(t *Table) (TableReport, error) {
	return summarizeTable(t, false)
}

// SummarizeTableDetailed is SummarizeTable plus the extended whole-table
// statistics (sample standard deviation, empirical median and quartiles).
func SummarizeTableDetailed(t *Table) (TableReport, error) {
	return summarizeTable(t, true)
}

func summarizeTable(t *Table, detailed bool) (TableReport, error) {
	if t == nil || t.Rows() == 0 || t.Cols() == 0 {
		return TableReport{}, ErrEmptyTable
	}

	rows, cols := t.Rows(), t.Cols()

	sums := make([]float64, cols)
	maxs := append([]float64(nil), t.cells[0]...)
	mins := append([]float64(nil), t.cells[0]...)

	for _, row := range t.cells {
		for c, v := range row {
			sums[c] += v
			if v > maxs[c] {
				maxs[c] = v
			}
			if v < mins[c] {
				mins[c] = v
			}
		}
	}

	columns := make([]ColumnSummary, cols)
	total := 0.0
	tableMax := maxs[0]
	tableMin := mins[0]
	for c := range cols {
		columns[c] = ColumnSummary{
			Column: c,
			Mean:   sums[c] / float64(rows),
			Max:    maxs[c],
			Min:    mins[c],
		}
		total += sums[c]
		if maxs[c] > tableMax {
			tableMax = maxs[c]
		}
		if mins[c] < tableMin {
			tableMin = mins[c]
		}
	}

	report := TableReport{
		Source:  t.source,
		Rows:    rows,
		Cols:    cols,
		Columns: columns,
		Table: TableStats{
			Mean: total / float64(rows*cols),
			Max:  tableMax,
			Min:  tableMin,
		},
	}
	if detailed {
		report.Detailed = detailedStats(t)
	}
	return report, nil
}

// detailedStats computes the extended whole-table statistics over the
// flattened cells. Quantiles use gonum's empirical definition.
func detailedStats(t *Table) *DetailedStats {
	flat := t.flatten()
	sort.Float64s(flat)

	std := 0.0
	if len(flat) > 1 {
		std = stat.StdDev(flat, nil)
	}
	return &DetailedStats{
		Std:    std,
		Median: stat.Quantile(0.5, stat.Empirical, flat, nil),
		Q1:     stat.Quantile(0.25, stat.Empirical, flat, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, flat, nil),
	}
}

// SummarizeBatch summarizes every table in b and aggregates the whole-table
// means across tables. Reports[i] always describes b[i]. Tables may differ
// in row count freely; when they differ in column count the summary's
// per-column comparison is omitted and only the whole-table means are
// aggregated. An empty batch returns ErrEmptyBatch; a nil or empty table
// anywhere in the batch fails the whole call with ErrEmptyTable.
func SummarizeBatch(b Batch) (BatchReport, error) {
	if len(b) == 0 {
		return BatchReport{}, ErrEmptyBatch
	}

	reports := make([]TableReport, len(b))
	for i, t := range b {
		rep, err := summarizeTable(t, false)
		if err != nil {
			return BatchReport{}, fmt.Errorf("summarizing table %d: %w", i, err)
		}
		reports[i] = rep
	}

	return BatchReport{Reports: reports, Summary: buildBatchSummary(reports)}, nil
}

// buildBatchSummary aggregates whole-table means across reports and, when
// every report shares a column count, the per-table column means across
// tables.
func buildBatchSummary(reports []TableReport) BatchSummary {
	s := BatchSummary{Tables: len(reports)}

	sum := 0.0
	maxMean := reports[0].Table.Mean
	minMean := reports[0].Table.Mean
	for i := range reports {
		m := reports[i].Table.Mean
		sum += m
		if m > maxMean {
			maxMean = m
		}
		if m < minMean {
			minMean = m
		}
	}
	s.MeanOfMeans = sum / float64(len(reports))
	s.MaxOfMeans = maxMean
	s.MinOfMeans = minMean

	cols := reports[0].Cols
	for i := range reports {
		if reports[i].Cols != cols {
			return s
		}
	}

	s.Columns = make([]ColumnSummary, cols)
	for c := range cols {
		colSum := 0.0
		colMax := reports[0].Columns[c].Mean
		colMin := colMax
		for i := range reports {
			m := reports[i].Columns[c].Mean
			colSum += m
			if m > colMax {
				colMax = m
			}
			if m < colMin {
				colMin = m
			}
		}
		s.Columns[c] = ColumnSummary{
			Column: c,
			Mean:   colSum / float64(len(reports)),
			Max:    colMax,
			Min:    colMin,
		}
	}
	return s
}
