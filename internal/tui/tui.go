// Package tui implements the interactive terminal browser for batch
// reports, built on Bubble Tea. Models follow the Elm architecture:
// Update produces a new model value for every message and View renders
// it without side effects, so the statistics shown are exactly the ones
// computed before the program started.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState identifies which screen a model is showing.
type ViewState int

const (
	// ViewStateLoading is shown while batch data is being prepared.
	ViewStateLoading ViewState = iota
	// ViewStateList is the main table listing.
	ViewStateList
	// ViewStateDetail shows a single table's full report.
	ViewStateDetail
	// ViewStateQuitting is entered just before the program exits.
	ViewStateQuitting
	// ViewStateError is a terminal state showing a failure.
	ViewStateError
)

// SortField identifies the ordering of the list view.
type SortField int

const (
	// SortByMean orders tables by whole-table mean, descending.
	SortByMean SortField = iota
	// SortBySource orders tables by source name, ascending.
	SortBySource
	// SortByMax orders tables by whole-table maximum, descending.
	SortByMax
	// SortByFindings orders tables by screening finding count, descending.
	SortByFindings

	numSortFields = 4
)

// Key bindings shared across models.
const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyEnter = "enter"
	keyEsc   = "esc"
	keySlash = "/"
	keyS     = "s"
)

// Layout constants.
const (
	defaultWidth  = 100
	defaultHeight = 30
	minHeight     = 5
	summaryHeight = 6
	borderPadding = 2

	filterInputCharLimit = 64
	filterInputWidth     = 40
)

// msgSelectedOutOfBounds is shown when the detail view points past the
// current row set, e.g. after a filter shrank the list.
const msgSelectedOutOfBounds = "Selected table is out of range.\n"

// newTextInput creates the filter input used by the list view.
func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Filter by source..."
	ti.CharLimit = filterInputCharLimit
	ti.Width = filterInputWidth
	return ti
}

// LoadingState wraps the spinner and message shown while data loads.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState creates a loading spinner with the default message.
func NewLoadingState() *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return &LoadingState{spinner: s, message: "Loading batch..."}
}

// Init returns the command that starts the spinner ticking.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner animation.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// SetMessage replaces the text shown beside the spinner.
func (l *LoadingState) SetMessage(message string) {
	l.message = message
}

// RenderLoading returns the string to display for a loading screen.
// If loading is nil, it returns the plain text "Loading...".
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return "Loading..."
	}
	return fmt.Sprintf("\n %s %s\n\n", loading.spinner.View(), loading.message)
}
