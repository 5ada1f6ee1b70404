package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trialmetrics/trialstat/internal/engine"
)

// maxBrowserTablesPerPage is the pagination threshold.
const maxBrowserTablesPerPage = 250

// batchLoadedMsg is sent when the fetcher finishes preparing the batch.
type batchLoadedMsg struct {
	rep      engine.BatchReport
	findings []engine.Finding
	err      error
}

// BatchFetcher loads and summarizes a batch. Fetchers run on the Bubble
// Tea command goroutine and should honor ctx cancellation.
type BatchFetcher func(ctx context.Context) (engine.BatchReport, []engine.Finding, error)

// BrowserModel is the Bubble Tea model for the interactive batch browser.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type BrowserModel struct {
	// View state
	state      ViewState
	allReports []engine.TableReport // All table reports (source of truth)
	reports    []engine.TableReport // Filtered/sorted reports
	summary    engine.BatchSummary
	findings   []engine.Finding

	// Interactive components
	table     table.Model
	textInput textinput.Model
	selected  int

	// Display configuration
	width      int
	height     int
	sortBy     SortField
	showFilter bool

	// Pagination
	paginationEnabled bool
	currentPage       int
	totalPages        int

	// Loading state
	loading  *LoadingState
	fetchCmd tea.Cmd

	// Error state
	err error
}

// NewBrowserModel creates a browser over an already-computed batch report.
func NewBrowserModel(rep engine.BatchReport, findings []engine.Finding) BrowserModel {
	m := BrowserModel{
		state:       ViewStateList,
		allReports:  rep.Reports,
		summary:     rep.Summary,
		findings:    findings,
		textInput:   newTextInput(),
		width:       defaultWidth,
		height:      defaultHeight,
		sortBy:      SortByMean,
		currentPage: 1,
	}
	m.applyFilter("")
	return m
}

// NewBrowserModelWithLoading creates a browser that starts in the loading
// state and runs fetch once the program starts.
func NewBrowserModelWithLoading(ctx context.Context, fetch BatchFetcher) BrowserModel {
	m := BrowserModel{
		state:       ViewStateLoading,
		loading:     NewLoadingState(),
		textInput:   newTextInput(),
		width:       defaultWidth,
		height:      defaultHeight,
		sortBy:      SortByMean,
		currentPage: 1,
		fetchCmd: func() tea.Msg {
			rep, findings, err := fetch(ctx)
			return batchLoadedMsg{rep: rep, findings: findings, err: err}
		},
	}
	m.table = m.buildBrowserTable()
	return m
}

// Init initializes the model (Bubble Tea interface).
func (m BrowserModel) Init() tea.Cmd {
	if m.state == ViewStateLoading && m.loading != nil {
		return tea.Batch(m.loading.Init(), m.fetchCmd)
	}
	return nil
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resizing
	if winMsg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = winMsg.Width
		m.height = winMsg.Height
		m.rebuildTable()
		return m, nil
	}

	// Handle batch loaded
	if loadMsg, ok := msg.(batchLoadedMsg); ok {
		return m.handleBatchLoaded(loadMsg)
	}

	// Handle filter input
	if m.showFilter {
		return m.handleFilterInput(msg)
	}

	// Handle state-specific updates
	switch m.state {
	case ViewStateLoading:
		return m.handleLoadingUpdate(msg)
	case ViewStateList:
		return m.handleListUpdate(msg)
	case ViewStateDetail:
		return m.handleDetailUpdate(msg)
	case ViewStateQuitting, ViewStateError:
		return m.handleTerminalUpdate(msg)
	default:
		return m, nil
	}
}

func (m BrowserModel) handleBatchLoaded(msg batchLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = ViewStateError
		m.err = msg.err
		return m, nil
	}

	m.state = ViewStateList
	m.allReports = msg.rep.Reports
	m.summary = msg.rep.Summary
	m.findings = msg.findings

	// Apply initial sort and filter (applyFilter calls refreshTable)
	m.applyFilter(m.textInput.Value())
	return m, nil
}

func (m BrowserModel) handleLoadingUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		}
		return m, nil
	}
	if m.loading != nil {
		return m, m.loading.Update(msg)
	}
	return m, nil
}

func (m BrowserModel) handleFilterInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEnter, keyEsc:
			m.showFilter = false
			m.textInput.Blur()
			m.applyFilter(m.textInput.Value())
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m BrowserModel) handleListUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m.handleListKeypress(keyMsg)
}

func (m BrowserModel) handleListKeypress(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		return m, tea.Quit
	case keyEnter:
		m.selected = m.absoluteIndex(m.table.Cursor())
		if m.selected >= 0 && m.selected < len(m.reports) {
			m.state = ViewStateDetail
		}
		return m, nil
	case keySlash:
		m.showFilter = true
		m.textInput.Focus()
		return m, textinput.Blink
	case keyS:
		m.cycleSort()
		return m, nil
	case keyEsc:
		if m.textInput.Value() != "" {
			m.textInput.SetValue("")
			m.applyFilter("")
		}
		return m, nil
	case "pgup":
		if m.paginationEnabled && m.currentPage > 1 {
			m.currentPage--
			m.rebuildTable()
		}
		return m, nil
	case "pgdown":
		if m.paginationEnabled && m.currentPage < m.totalPages {
			m.currentPage++
			m.rebuildTable()
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(keyMsg)
		return m, cmd
	}
}

// absoluteIndex converts a page-relative table cursor to an absolute row index.
func (m BrowserModel) absoluteIndex(cursor int) int {
	if m.paginationEnabled {
		return (m.currentPage-1)*maxBrowserTablesPerPage + cursor
	}
	return cursor
}

func (m BrowserModel) handleDetailUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		case keyEsc:
			m.state = ViewStateList
			m.table.Focus()
			return m, nil
		}
	}
	return m, nil
}

func (m BrowserModel) handleTerminalUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC, keyEsc, keyEnter:
			return m, tea.Quit
		}
	}
	return m, nil
}

// cycleSort advances to the next sort field.
func (m *BrowserModel) cycleSort() {
	m.sortBy = (m.sortBy + 1) % numSortFields
	m.refreshTable()
}

// refreshTable re-sorts and rebuilds the table.
func (m *BrowserModel) refreshTable() {
	switch m.sortBy {
	case SortByMean:
		sort.SliceStable(m.reports, func(i, j int) bool {
			return m.reports[i].Table.Mean > m.reports[j].Table.Mean
		})
	case SortBySource:
		sort.SliceStable(m.reports, func(i, j int) bool {
			return m.reports[i].Source < m.reports[j].Source
		})
	case SortByMax:
		sort.SliceStable(m.reports, func(i, j int) bool {
			return m.reports[i].Table.Max > m.reports[j].Table.Max
		})
	case SortByFindings:
		sort.SliceStable(m.reports, func(i, j int) bool {
			return m.findingCount(m.reports[i].Source) > m.findingCount(m.reports[j].Source)
		})
	}

	m.rebuildTable()
}

// rebuildTable reconstructs the table with current rows and pagination.
func (m *BrowserModel) rebuildTable() {
	m.table = m.buildBrowserTable()
}

// buildBrowserTable creates a new table model with current configuration.
func (m *BrowserModel) buildBrowserTable() table.Model {
	columns := []table.Column{
		{Title: "Source", Width: 28},  //nolint:mnd // Column width.
		{Title: "Shape", Width: 9},    //nolint:mnd // Column width.
		{Title: "Mean", Width: 10},    //nolint:mnd // Column width.
		{Title: "Max", Width: 10},     //nolint:mnd // Column width.
		{Title: "Min", Width: 10},     //nolint:mnd // Column width.
		{Title: "Findings", Width: 8}, //nolint:mnd // Column width.
	}

	visibleReports := m.getVisibleReports()
	rows := make([]table.Row, len(visibleReports))

	for i, rep := range visibleReports {
		rows[i] = table.Row{
			truncateSource(rep.Source),
			fmt.Sprintf("%dx%d", rep.Rows, rep.Cols),
			fmt.Sprintf("%.2f", rep.Table.Mean),
			fmt.Sprintf("%.2f", rep.Table.Max),
			fmt.Sprintf("%.2f", rep.Table.Min),
			formatFindingsColumn(m.findingCount(rep.Source)),
		}
	}

	availableHeight := m.height - summaryHeight - 1
	if availableHeight < minHeight {
		availableHeight = minHeight
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(availableHeight),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)

	return t
}

// truncateSource shortens a source path for display, preferring the base name.
func truncateSource(source string) string {
	const maxLen = 28
	if len(source) <= maxLen {
		return source
	}
	base := filepath.Base(source)
	if len(base) <= maxLen {
		return base
	}
	return base[:maxLen-3] + "..."
}

// formatFindingsColumn returns the finding count for table display.
// Returns "-" when the count is zero so the column stays visually clean.
func formatFindingsColumn(count int) string {
	if count == 0 {
		return "-"
	}
	return strconv.Itoa(count)
}

// applyFilter filters reports by source substring. It always calls
// enablePaginationIfNeeded and refreshTable to keep pagination state
// consistent.
func (m *BrowserModel) applyFilter(filterText string) {
	if filterText == "" {
		m.reports = append([]engine.TableReport(nil), m.allReports...)
	} else {
		query := strings.ToLower(filterText)
		filtered := []engine.TableReport{}

		for _, rep := range m.allReports {
			if strings.Contains(strings.ToLower(rep.Source), query) {
				filtered = append(filtered, rep)
			}
		}

		m.reports = filtered
	}

	m.enablePaginationIfNeeded()
	m.refreshTable()
}

// findingCount returns the number of findings recorded against a source.
func (m *BrowserModel) findingCount(source string) int {
	n := 0
	for _, f := range m.findings {
		if f.Source == source {
			n++
		}
	}
	return n
}

// findingsFor returns the findings recorded against a source, in order.
func (m *BrowserModel) findingsFor(source string) []engine.Finding {
	var out []engine.Finding
	for _, f := range m.findings {
		if f.Source == source {
			out = append(out, f)
		}
	}
	return out
}

// enablePaginationIfNeeded checks if pagination should be enabled.
func (m *BrowserModel) enablePaginationIfNeeded() {
	if len(m.reports) > maxBrowserTablesPerPage {
		m.paginationEnabled = true
		m.totalPages = (len(m.reports) + maxBrowserTablesPerPage - 1) / maxBrowserTablesPerPage
		m.currentPage = 1
	} else {
		m.paginationEnabled = false
	}
}

// getVisibleReports returns the reports for the current page.
func (m *BrowserModel) getVisibleReports() []engine.TableReport {
	if !m.paginationEnabled {
		return m.reports
	}

	start := (m.currentPage - 1) * maxBrowserTablesPerPage
	end := start + maxBrowserTablesPerPage
	if end > len(m.reports) {
		end = len(m.reports)
	}

	if start >= len(m.reports) {
		return []engine.TableReport{}
	}

	return m.reports[start:end]
}

// renderPaginationFooter displays page info at the bottom.
func (m *BrowserModel) renderPaginationFooter() string {
	if !m.paginationEnabled {
		return ""
	}

	return fmt.Sprintf("Page %d/%d | Use PgUp/PgDn to navigate", m.currentPage, m.totalPages)
}
