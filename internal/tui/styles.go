package tui

import "github.com/charmbracelet/lipgloss"

// Styles shared by all views. ANSI-256 colors keep rendering consistent
// across common terminal themes.
var (
	// HeaderStyle renders section headings.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	// LabelStyle renders field labels.
	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// ValueStyle renders field values.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	// SubtleStyle renders footers and key hints.
	SubtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// InfoStyle renders informational banners.
	InfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	// WarningStyle renders screening findings and other cautions.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// CriticalStyle renders errors.
	CriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	// SpinnerStyle colors the loading spinner.
	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// BoxStyle wraps summary and detail content in a rounded border.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	// TableHeaderStyle styles the list table header row.
	TableHeaderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				BorderBottom(true).
				Bold(true)

	// TableSelectedStyle highlights the cursor row.
	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)
