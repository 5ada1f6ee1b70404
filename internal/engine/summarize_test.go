package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustTable builds a table or fails the test.
func mustTable(t *testing.T, source string, values [][]float64) *Table {
	t.Helper()
	tb, err := New(source, values)
	require.NoError(t, err)
	return tb
}

func TestSummarizeTable(t *testing.T) {
	t.Run("TwoByThree", func(t *testing.T) {
		tb := mustTable(t, "trial-a.csv", [][]float64{{1, 2, 3}, {4, 5, 6}})

		rep, err := SummarizeTable(tb)
		require.NoError(t, err)

		assert.Equal(t, "trial-a.csv", rep.Source)
		assert.Equal(t, 2, rep.Rows)
		assert.Equal(t, 3, rep.Cols)
		require.Len(t, rep.Columns, 3)

		assert.Equal(t, []ColumnSummary{
			{Column: 0, Mean: 2.5, Max: 4, Min: 1},
			{Column: 1, Mean: 3.5, Max: 5, Min: 2},
			{Column: 2, Mean: 4.5, Max: 6, Min: 3},
		}, rep.Columns)

		assert.Equal(t, TableStats{Mean: 3.5, Max: 6, Min: 1}, rep.Table)
		assert.Nil(t, rep.Detailed)
		require.NoError(t, rep.Validate())
	})

	t.Run("SingleRow", func(t *testing.T) {
		tb := mustTable(t, "single.csv", [][]float64{{5, 7, 9}})

		rep, err := SummarizeTable(tb)
		require.NoError(t, err)

		// Each column summary collapses to the single value.
		assert.Equal(t, []ColumnSummary{
			{Column: 0, Mean: 5, Max: 5, Min: 5},
			{Column: 1, Mean: 7, Max: 7, Min: 7},
			{Column: 2, Mean: 9, Max: 9, Min: 9},
		}, rep.Columns)
		assert.Equal(t, TableStats{Mean: 7, Max: 9, Min: 5}, rep.Table)
	})

	t.Run("SingleColumn", func(t *testing.T) {
		tb := mustTable(t, "col.csv", [][]float64{{1}, {2}, {6}})

		rep, err := SummarizeTable(tb)
		require.NoError(t, err)
		assert.Equal(t, []ColumnSummary{{Column: 0, Mean: 3, Max: 6, Min: 1}}, rep.Columns)
		assert.Equal(t, TableStats{Mean: 3, Max: 6, Min: 1}, rep.Table)
	})

	t.Run("NegativeValues", func(t *testing.T) {
		tb := mustTable(t, "neg.csv", [][]float64{{-2, 4}, {-6, 8}})

		rep, err := SummarizeTable(tb)
		require.NoError(t, err)
		assert.Equal(t, TableStats{Mean: 1, Max: 8, Min: -6}, rep.Table)
		assert.Equal(t, ColumnSummary{Column: 0, Mean: -4, Max: -2, Min: -6}, rep.Columns[0])
	})

	t.Run("NilTable", func(t *testing.T) {
		_, err := SummarizeTable(nil)
		assert.ErrorIs(t, err, ErrEmptyTable)
	})

	t.Run("ZeroValueTable", func(t *testing.T) {
		_, err := SummarizeTable(&Table{})
		assert.ErrorIs(t, err, ErrEmptyTable)
	})

	t.Run("Idempotent", func(t *testing.T) {
		tb := mustTable(t, "idem.csv", [][]float64{{0.1, 0.2, 0.3}, {0.7, 1.1, 2.9}})

		first, err := SummarizeTable(tb)
		require.NoError(t, err)
		second, err := SummarizeTable(tb)
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(first, second))
	})
}

func TestSummarizeTableDetailed(t *testing.T) {
	t.Run("ExtendedStats", func(t *testing.T) {
		tb := mustTable(t, "trial-a.csv", [][]float64{{1, 2, 3}, {4, 5, 6}})

		rep, err := SummarizeTableDetailed(tb)
		require.NoError(t, err)
		require.NotNil(t, rep.Detailed)

		assert.InDelta(t, 1.8708286933869707, rep.Detailed.Std, 1e-12)
		assert.Equal(t, 3.0, rep.Detailed.Median)
		assert.Equal(t, 2.0, rep.Detailed.Q1)
		assert.Equal(t, 5.0, rep.Detailed.Q3)

		// The basic statistics are unchanged by detailed mode.
		assert.Equal(t, TableStats{Mean: 3.5, Max: 6, Min: 1}, rep.Table)
	})

	t.Run("SingleCellStdIsZero", func(t *testing.T) {
		tb := mustTable(t, "one.csv", [][]float64{{42}})

		rep, err := SummarizeTableDetailed(tb)
		require.NoError(t, err)
		require.NotNil(t, rep.Detailed)
		assert.Equal(t, 0.0, rep.Detailed.Std)
		assert.Equal(t, 42.0, rep.Detailed.Median)
	})
}

func TestSummarizeBatch(t *testing.T) {
	t.Run("MeanOfMeans", func(t *testing.T) {
		batch := Batch{
			mustTable(t, "trial-a.csv", [][]float64{{1, 2, 3}, {4, 5, 6}}),
			mustTable(t, "trial-b.csv", [][]float64{{10, 10}, {10, 10}}),
		}

		rep, err := SummarizeBatch(batch)
		require.NoError(t, err)

		require.Len(t, rep.Reports, 2)
		assert.Equal(t, "trial-a.csv", rep.Reports[0].Source)
		assert.Equal(t, "trial-b.csv", rep.Reports[1].Source)

		assert.Equal(t, 2, rep.Summary.Tables)
		assert.Equal(t, 6.75, rep.Summary.MeanOfMeans)
		assert.Equal(t, 10.0, rep.Summary.MaxOfMeans)
		assert.Equal(t, 3.5, rep.Summary.MinOfMeans)

		// Column counts differ (3 vs 2), so no cross-table column comparison.
		assert.Nil(t, rep.Summary.Columns)
		require.NoError(t, rep.Validate())
	})

	t.Run("SingleTable", func(t *testing.T) {
		batch := Batch{mustTable(t, "only.csv", [][]float64{{1, 2, 3}, {4, 5, 6}})}

		rep, err := SummarizeBatch(batch)
		require.NoError(t, err)
		assert.Equal(t, 3.5, rep.Summary.MeanOfMeans)
		assert.Equal(t, 3.5, rep.Summary.MaxOfMeans)
		assert.Equal(t, 3.5, rep.Summary.MinOfMeans)
	})

	t.Run("OrderPreserved", func(t *testing.T) {
		batch := Batch{
			mustTable(t, "c.csv", [][]float64{{3}}),
			mustTable(t, "a.csv", [][]float64{{1}}),
			mustTable(t, "b.csv", [][]float64{{2}}),
		}

		rep, err := SummarizeBatch(batch)
		require.NoError(t, err)

		sources := []string{rep.Reports[0].Source, rep.Reports[1].Source, rep.Reports[2].Source}
		assert.Equal(t, []string{"c.csv", "a.csv", "b.csv"}, sources)
	})

	t.Run("DifferingRowCounts", func(t *testing.T) {
		batch := Batch{
			mustTable(t, "tall.csv", [][]float64{{1, 2}, {3, 4}, {5, 6}}),
			mustTable(t, "short.csv", [][]float64{{7, 8}}),
		}

		rep, err := SummarizeBatch(batch)
		require.NoError(t, err)
		// Same column count, so the cross-table comparison is present.
		require.Len(t, rep.Summary.Columns, 2)
	})

	t.Run("AlignedColumnComparison", func(t *testing.T) {
		batch := Batch{
			mustTable(t, "a.csv", [][]float64{{2, 4}, {6, 8}}),   // column means 4, 6
			mustTable(t, "b.csv", [][]float64{{10, 10}, {10, 10}}), // column means 10, 10
		}

		rep, err := SummarizeBatch(batch)
		require.NoError(t, err)

		assert.Equal(t, []ColumnSummary{
			{Column: 0, Mean: 7, Max: 10, Min: 4},
			{Column: 1, Mean: 8, Max: 10, Min: 6},
		}, rep.Summary.Columns)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		_, err := SummarizeBatch(nil)
		assert.ErrorIs(t, err, ErrEmptyBatch)

		_, err = SummarizeBatch(Batch{})
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})

	t.Run("NilTableInBatch", func(t *testing.T) {
		batch := Batch{mustTable(t, "ok.csv", [][]float64{{1}}), nil}

		_, err := SummarizeBatch(batch)
		require.ErrorIs(t, err, ErrEmptyTable)
		assert.Contains(t, err.Error(), "table 1")
	})

	t.Run("PureFunctionOfInput", func(t *testing.T) {
		batch := Batch{
			mustTable(t, "a.csv", [][]float64{{1.5, 2.5}, {3.5, 4.5}}),
			mustTable(t, "b.csv", [][]float64{{0.25, 0.75}}),
		}

		first, err := SummarizeBatch(batch)
		require.NoError(t, err)
		second, err := SummarizeBatch(batch)
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(first, second))
	})
}

func TestReportValidate(t *testing.T) {
	valid := func(t *testing.T) TableReport {
		t.Helper()
		rep, err := SummarizeTable(mustTable(t, "v.csv", [][]float64{{1, 2}, {3, 4}}))
		require.NoError(t, err)
		return rep
	}

	t.Run("ValidReportPasses", func(t *testing.T) {
		rep := valid(t)
		assert.NoError(t, rep.Validate())
	})

	t.Run("MissingSource", func(t *testing.T) {
		rep := valid(t)
		rep.Source = ""
		assert.ErrorIs(t, rep.Validate(), ErrReportValidation)
	})

	t.Run("ColumnCountMismatch", func(t *testing.T) {
		rep := valid(t)
		rep.Columns = rep.Columns[:1]
		assert.ErrorIs(t, rep.Validate(), ErrReportValidation)
	})

	t.Run("MeanOutsideRange", func(t *testing.T) {
		rep := valid(t)
		rep.Table.Mean = 99
		assert.ErrorIs(t, rep.Validate(), ErrReportValidation)
	})

	t.Run("BatchCountMismatch", func(t *testing.T) {
		batchRep, err := SummarizeBatch(Batch{mustTable(t, "v.csv", [][]float64{{1}})})
		require.NoError(t, err)
		batchRep.Summary.Tables = 5
		assert.ErrorIs(t, batchRep.Validate(), ErrReportValidation)
	})
}
