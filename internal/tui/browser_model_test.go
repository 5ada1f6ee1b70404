package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialmetrics/trialstat/internal/engine"
)

// sampleBatchReport builds a three-table report with distinct aggregates so
// sort order is unambiguous.
func sampleBatchReport() engine.BatchReport {
	return engine.BatchReport{
		Reports: []engine.TableReport{
			{
				Source: "trial-a.csv",
				Rows:   2,
				Cols:   3,
				Columns: []engine.ColumnSummary{
					{Column: 0, Mean: 2.5, Max: 4, Min: 1},
					{Column: 1, Mean: 3.5, Max: 5, Min: 2},
					{Column: 2, Mean: 4.5, Max: 6, Min: 3},
				},
				Table: engine.TableStats{Mean: 3.5, Max: 6, Min: 1},
			},
			{
				Source: "trial-b.csv",
				Rows:   2,
				Cols:   2,
				Columns: []engine.ColumnSummary{
					{Column: 0, Mean: 10, Max: 10, Min: 10},
					{Column: 1, Mean: 10, Max: 10, Min: 10},
				},
				Table: engine.TableStats{Mean: 10, Max: 10, Min: 10},
			},
			{
				Source: "control.csv",
				Rows:   1,
				Cols:   1,
				Columns: []engine.ColumnSummary{
					{Column: 0, Mean: 7, Max: 7, Min: 7},
				},
				Table: engine.TableStats{Mean: 7, Max: 7, Min: 7},
			},
		},
		Summary: engine.BatchSummary{
			Tables:      3,
			MeanOfMeans: 6.833333333333333,
			MaxOfMeans:  10,
			MinOfMeans:  3.5,
		},
	}
}

func sampleFindings() []engine.Finding {
	return []engine.Finding{
		{Kind: engine.FindingHighReadings, Source: "trial-b.csv", Count: 4, Detail: "4 cells above 5"},
		{Kind: engine.FindingOutlierMean, Source: "trial-b.csv", Detail: "mean 10.00 deviates from batch mean"},
	}
}

// TestNewBrowserModel verifies initial model state.
func TestNewBrowserModel(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), sampleFindings())

	assert.Equal(t, ViewStateList, model.state)
	assert.Equal(t, SortByMean, model.sortBy)
	assert.Len(t, model.allReports, 3)
	assert.Len(t, model.reports, 3)
	assert.Equal(t, 3, model.summary.Tables)

	// Default sort is mean descending.
	assert.Equal(t, "trial-b.csv", model.reports[0].Source)
	assert.Equal(t, "control.csv", model.reports[1].Source)
	assert.Equal(t, "trial-a.csv", model.reports[2].Source)
}

// TestNewBrowserModel_DoesNotReorderInput verifies the caller's report
// slice keeps its original order after the model sorts its own view.
func TestNewBrowserModel_DoesNotReorderInput(t *testing.T) {
	rep := sampleBatchReport()
	_ = NewBrowserModel(rep, nil)

	assert.Equal(t, "trial-a.csv", rep.Reports[0].Source)
	assert.Equal(t, "trial-b.csv", rep.Reports[1].Source)
	assert.Equal(t, "control.csv", rep.Reports[2].Source)
}

// TestNewBrowserModelWithLoading verifies the loading constructor.
func TestNewBrowserModelWithLoading(t *testing.T) {
	fetch := func(_ context.Context) (engine.BatchReport, []engine.Finding, error) {
		return sampleBatchReport(), nil, nil
	}

	model := NewBrowserModelWithLoading(context.Background(), fetch)

	assert.Equal(t, ViewStateLoading, model.state)
	assert.NotNil(t, model.loading)
	assert.NotNil(t, model.Init())
}

// TestBrowserModel_BatchLoadedTransition verifies loading completion.
func TestBrowserModel_BatchLoadedTransition(t *testing.T) {
	fetch := func(_ context.Context) (engine.BatchReport, []engine.Finding, error) {
		return sampleBatchReport(), sampleFindings(), nil
	}
	model := NewBrowserModelWithLoading(context.Background(), fetch)

	msg := batchLoadedMsg{rep: sampleBatchReport(), findings: sampleFindings()}
	updatedModel, _ := model.Update(msg)
	model = updatedModel.(BrowserModel)

	assert.Equal(t, ViewStateList, model.state)
	assert.Len(t, model.reports, 3)
	assert.Len(t, model.findings, 2)
}

// TestBrowserModel_BatchLoadedError verifies fetch failure handling.
func TestBrowserModel_BatchLoadedError(t *testing.T) {
	fetch := func(_ context.Context) (engine.BatchReport, []engine.Finding, error) {
		return engine.BatchReport{}, nil, errors.New("no such directory")
	}
	model := NewBrowserModelWithLoading(context.Background(), fetch)

	msg := batchLoadedMsg{err: errors.New("no such directory")}
	updatedModel, _ := model.Update(msg)
	model = updatedModel.(BrowserModel)

	assert.Equal(t, ViewStateError, model.state)
	assert.Contains(t, model.View(), "no such directory")

	// Any of the quit keys exits from the error state.
	qMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	_, cmd := model.Update(qMsg)
	assert.NotNil(t, cmd)
}

// TestBrowserModel_StateTransitions verifies state machine transitions.
func TestBrowserModel_StateTransitions(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)
	assert.Equal(t, ViewStateList, model.state)

	// Transition: List -> Detail (Enter key)
	keyMsg := tea.KeyMsg{Type: tea.KeyEnter}
	updatedModel, _ := model.Update(keyMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, ViewStateDetail, model.state)

	// Transition: Detail -> List (Esc key)
	escMsg := tea.KeyMsg{Type: tea.KeyEscape}
	updatedModel, _ = model.Update(escMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, ViewStateList, model.state)
}

// TestBrowserModel_KeyboardNavigation verifies up/down/j/k keys.
func TestBrowserModel_KeyboardNavigation(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)

	// Initial cursor at row 0
	assert.Equal(t, 0, model.table.Cursor())

	// Down arrow
	downMsg := tea.KeyMsg{Type: tea.KeyDown}
	updatedModel, _ := model.Update(downMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 1, model.table.Cursor())

	// 'j' key (vim-style down)
	jMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	updatedModel, _ = model.Update(jMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 2, model.table.Cursor())

	// 'k' key (vim-style up)
	kMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	updatedModel, _ = model.Update(kMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 1, model.table.Cursor())

	// Up arrow
	upMsg := tea.KeyMsg{Type: tea.KeyUp}
	updatedModel, _ = model.Update(upMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 0, model.table.Cursor())
}

// TestBrowserModel_SortCycling verifies 's' key sort cycling.
func TestBrowserModel_SortCycling(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), sampleFindings())
	assert.Equal(t, SortByMean, model.sortBy)

	sMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}

	// Cycle: Mean -> Source
	updatedModel, _ := model.Update(sMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, SortBySource, model.sortBy)
	assert.Equal(t, "control.csv", model.reports[0].Source)

	// Cycle: Source -> Max
	updatedModel, _ = model.Update(sMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, SortByMax, model.sortBy)
	assert.Equal(t, "trial-b.csv", model.reports[0].Source)

	// Cycle: Max -> Findings
	updatedModel, _ = model.Update(sMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, SortByFindings, model.sortBy)
	assert.Equal(t, "trial-b.csv", model.reports[0].Source)

	// Cycle: Findings -> Mean (wrap around)
	updatedModel, _ = model.Update(sMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, SortByMean, model.sortBy)
}

// TestBrowserModel_FilterMode verifies filter entry/exit.
func TestBrowserModel_FilterMode(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)
	assert.False(t, model.showFilter)

	// Enter filter mode with '/'
	slashMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}}
	updatedModel, _ := model.Update(slashMsg)
	model = updatedModel.(BrowserModel)
	assert.True(t, model.showFilter)

	// Exit filter mode with Esc
	escMsg := tea.KeyMsg{Type: tea.KeyEscape}
	updatedModel, _ = model.Update(escMsg)
	model = updatedModel.(BrowserModel)
	assert.False(t, model.showFilter)
}

// TestBrowserModel_FilterTextMatching verifies source substring matching.
func TestBrowserModel_FilterTextMatching(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)

	// Filter by "trial" (matches two sources, case insensitive)
	model.applyFilter("TRIAL")
	assert.Len(t, model.reports, 2)

	// Filter by "control"
	model.applyFilter("control")
	require.Len(t, model.reports, 1)
	assert.Equal(t, "control.csv", model.reports[0].Source)

	// No match
	model.applyFilter("placebo")
	assert.Empty(t, model.reports)

	// Clear filter
	model.applyFilter("")
	assert.Len(t, model.reports, 3)
}

// TestBrowserModel_PaginationBoundaries verifies PgUp/PgDn at boundaries.
func TestBrowserModel_PaginationBoundaries(t *testing.T) {
	// Create 300 reports to trigger pagination (threshold is 250)
	reports := make([]engine.TableReport, 300)
	for i := range reports {
		reports[i] = engine.TableReport{
			Source: fmt.Sprintf("trial-%03d.csv", i),
			Rows:   1,
			Cols:   1,
			Columns: []engine.ColumnSummary{
				{Column: 0, Mean: float64(i), Max: float64(i), Min: float64(i)},
			},
			Table: engine.TableStats{Mean: float64(i), Max: float64(i), Min: float64(i)},
		}
	}
	rep := engine.BatchReport{
		Reports: reports,
		Summary: engine.BatchSummary{Tables: 300, MeanOfMeans: 149.5, MaxOfMeans: 299, MinOfMeans: 0},
	}

	model := NewBrowserModel(rep, nil)

	require.True(t, model.paginationEnabled)
	assert.Equal(t, 1, model.currentPage)
	assert.Equal(t, 2, model.totalPages) // 300 reports / 250 per page = 2 pages

	// PgUp at first page (should stay at page 1)
	pgUpMsg := tea.KeyMsg{Type: tea.KeyPgUp}
	updatedModel, _ := model.Update(pgUpMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 1, model.currentPage)

	// PgDn to page 2
	pgDnMsg := tea.KeyMsg{Type: tea.KeyPgDown}
	updatedModel, _ = model.Update(pgDnMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 2, model.currentPage)

	// PgDn at last page (should stay at page 2)
	updatedModel, _ = model.Update(pgDnMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 2, model.currentPage)

	// Page 2 holds the remaining 50 reports
	assert.Len(t, model.getVisibleReports(), 50)

	// PgUp back to page 1
	updatedModel, _ = model.Update(pgUpMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, 1, model.currentPage)
	assert.Len(t, model.getVisibleReports(), 250)
}

// TestBrowserModel_QuitKeys verifies q and Ctrl+C quit.
func TestBrowserModel_QuitKeys(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)

	// Test 'q' key
	qMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := model.Update(qMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, ViewStateQuitting, model.state)
	assert.NotNil(t, cmd) // Should return tea.Quit command

	// Reset and test Ctrl+C
	model.state = ViewStateList
	ctrlCMsg := tea.KeyMsg{Type: tea.KeyCtrlC}
	updatedModel, cmd = model.Update(ctrlCMsg)
	model = updatedModel.(BrowserModel)
	assert.Equal(t, ViewStateQuitting, model.state)
	assert.NotNil(t, cmd) // Should return tea.Quit command
}

// TestBrowserModel_WindowResize verifies terminal resize handling.
func TestBrowserModel_WindowResize(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)

	assert.Equal(t, defaultWidth, model.width)
	assert.Equal(t, defaultHeight, model.height)

	resizeMsg := tea.WindowSizeMsg{Width: 120, Height: 40}
	updatedModel, _ := model.Update(resizeMsg)
	model = updatedModel.(BrowserModel)

	assert.Equal(t, 120, model.width)
	assert.Equal(t, 40, model.height)
}

// TestBrowserModel_ListView verifies list rendering content.
func TestBrowserModel_ListView(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), sampleFindings())

	view := model.View()

	for _, want := range []string{
		"BATCH SUMMARY",
		"Tables:", "3",
		"Mean of means:", "6.83",
		"trial-a.csv", "trial-b.csv", "control.csv",
		"Sort: Mean",
	} {
		assert.Contains(t, view, want)
	}
}

// TestBrowserModel_DetailView verifies detail rendering content.
func TestBrowserModel_DetailView(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), sampleFindings())

	// Select the first row (trial-b.csv under mean-descending sort).
	enterMsg := tea.KeyMsg{Type: tea.KeyEnter}
	updatedModel, _ := model.Update(enterMsg)
	model = updatedModel.(BrowserModel)
	require.Equal(t, ViewStateDetail, model.state)

	view := model.View()

	for _, want := range []string{
		"TABLE DETAIL",
		"trial-b.csv",
		"2 rows x 2 cols",
		"WHOLE TABLE",
		"COLUMNS",
		"FINDINGS",
		"high_readings",
	} {
		assert.Contains(t, view, want)
	}
}

// TestBrowserModel_DetailViewOutOfBounds verifies selection guard.
func TestBrowserModel_DetailViewOutOfBounds(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), nil)
	model.state = ViewStateDetail
	model.selected = 99

	assert.Equal(t, msgSelectedOutOfBounds, model.View())
}

// TestBrowserModel_FindingCount verifies per-source finding counting.
func TestBrowserModel_FindingCount(t *testing.T) {
	model := NewBrowserModel(sampleBatchReport(), sampleFindings())

	assert.Equal(t, 2, model.findingCount("trial-b.csv"))
	assert.Equal(t, 0, model.findingCount("trial-a.csv"))
	assert.Len(t, model.findingsFor("trial-b.csv"), 2)
	assert.Empty(t, model.findingsFor("control.csv"))
}

// TestTruncateSource verifies display truncation.
func TestTruncateSource(t *testing.T) {
	assert.Equal(t, "trial-a.csv", truncateSource("trial-a.csv"))

	long := "data/2026/site-04/week-12/observations-cohort-b.csv"
	got := truncateSource(long)
	assert.Equal(t, "observations-cohort-b.csv", got)

	base := strings.Repeat("x", 40) + ".csv"
	got = truncateSource("dir/" + base)
	assert.Len(t, got, 28)
	assert.True(t, strings.HasSuffix(got, "..."))
}
