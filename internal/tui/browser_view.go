package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/trialmetrics/trialstat/internal/engine"
)

// View renders the current view (Bubble Tea interface).
func (m BrowserModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateError:
		return CriticalStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	case ViewStateLoading:
		return RenderLoading(m.loading)
	case ViewStateDetail:
		return m.renderDetailView()
	case ViewStateList:
		return m.renderListView()
	default:
		return ""
	}
}

// renderListView renders the main table view with optional filter input.
func (m BrowserModel) renderListView() string {
	var sections []string

	// Batch summary box
	sections = append(sections, m.renderBatchSummary())

	// Table
	sections = append(sections, m.table.View())

	// Pagination footer
	if m.paginationEnabled {
		sections = append(sections, m.renderPaginationFooter())
	}

	// Status bar with sort/filter indicators
	sections = append(sections, m.renderStatusBar())

	// Filter input (if active)
	if m.showFilter {
		filterView := LabelStyle.Render("Filter: ") + m.textInput.View()
		sections = append(sections, filterView)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderBatchSummary renders the boxed cross-table aggregates.
func (m BrowserModel) renderBatchSummary() string {
	var content strings.Builder

	content.WriteString(HeaderStyle.Render("BATCH SUMMARY"))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Tables: "))
	content.WriteString(ValueStyle.Render(strconv.Itoa(m.summary.Tables)))
	content.WriteString(LabelStyle.Render("    Mean of means: "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.2f", m.summary.MeanOfMeans)))
	content.WriteString(LabelStyle.Render("    Max: "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.2f", m.summary.MaxOfMeans)))
	content.WriteString(LabelStyle.Render("    Min: "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.2f", m.summary.MinOfMeans)))

	if len(m.findings) > 0 {
		content.WriteString(LabelStyle.Render("    Findings: "))
		content.WriteString(WarningStyle.Render(strconv.Itoa(len(m.findings))))
	}

	return BoxStyle.Width(m.width - borderPadding).Render(content.String())
}

// renderStatusBar displays current sort field and filter status.
func (m BrowserModel) renderStatusBar() string {
	sortLabel := m.getSortLabel()
	filterStatus := ""

	if m.textInput.Value() != "" {
		filterStatus = fmt.Sprintf(" | Filtered: %d/%d", len(m.reports), len(m.allReports))
	}

	status := fmt.Sprintf("Sort: %s%s | Press 's' to cycle, '/' to filter, 'q' to quit", sortLabel, filterStatus)
	return SubtleStyle.Render(status)
}

// getSortLabel returns the human-readable label for the current sort field.
func (m BrowserModel) getSortLabel() string {
	switch m.sortBy {
	case SortByMean:
		return "Mean"
	case SortBySource:
		return "Source"
	case SortByMax:
		return "Max"
	case SortByFindings:
		return "Findings"
	default:
		return "Unknown"
	}
}

// renderDetailView renders the detail view for a selected table.
func (m BrowserModel) renderDetailView() string {
	if m.selected < 0 || m.selected >= len(m.reports) {
		return msgSelectedOutOfBounds
	}

	rep := m.reports[m.selected]
	var content strings.Builder

	// Header and metadata
	content.WriteString(HeaderStyle.Render("TABLE DETAIL"))
	content.WriteString("\n\n")
	content.WriteString(LabelStyle.Render("Source: "))
	content.WriteString(ValueStyle.Render(rep.Source))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("Shape:  "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%d rows x %d cols", rep.Rows, rep.Cols)))
	content.WriteString("\n\n")

	// Statistics sections
	renderDetailTableStats(&content, rep)
	renderDetailColumns(&content, rep)
	renderDetailExtended(&content, rep)
	renderDetailFindings(&content, m.findingsFor(rep.Source))

	content.WriteString(SubtleStyle.Render("\nPress ESC to return"))

	return BoxStyle.Width(m.width - borderPadding).Render(content.String())
}

// renderDetailTableStats writes whole-table aggregates to the builder.
func renderDetailTableStats(content *strings.Builder, rep engine.TableReport) {
	content.WriteString(HeaderStyle.Render("WHOLE TABLE"))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Mean: "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Table.Mean)))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Max:  "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Table.Max)))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Min:  "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Table.Min)))
	content.WriteString("\n\n")
}

// renderDetailColumns writes per-column statistics to the builder.
func renderDetailColumns(content *strings.Builder, rep engine.TableReport) {
	if len(rep.Columns) == 0 {
		return
	}
	content.WriteString(HeaderStyle.Render("COLUMNS"))
	content.WriteString("\n")
	for _, col := range rep.Columns {
		fmt.Fprintf(content, "  %3d: mean %10.4f   max %10.4f   min %10.4f\n",
			col.Column+1, col.Mean, col.Max, col.Min)
	}
	content.WriteString("\n")
}

// renderDetailExtended writes detailed statistics when present.
func renderDetailExtended(content *strings.Builder, rep engine.TableReport) {
	if rep.Detailed == nil {
		return
	}
	content.WriteString(HeaderStyle.Render("DISTRIBUTION"))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Std:    "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Detailed.Std)))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Median: "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Detailed.Median)))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Q1:     "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Detailed.Q1)))
	content.WriteString("\n")
	content.WriteString(LabelStyle.Render("  Q3:     "))
	content.WriteString(ValueStyle.Render(fmt.Sprintf("%.4f", rep.Detailed.Q3)))
	content.WriteString("\n\n")
}

// renderDetailFindings writes screening findings to the builder.
func renderDetailFindings(content *strings.Builder, findings []engine.Finding) {
	if len(findings) == 0 {
		return
	}
	content.WriteString(HeaderStyle.Render("FINDINGS"))
	content.WriteString("\n")
	for _, f := range findings {
		content.WriteString(WarningStyle.Render(fmt.Sprintf("  [%s] %s", f.Kind, f.Detail)))
		content.WriteString("\n")
	}
	content.WriteString("\n")
}
