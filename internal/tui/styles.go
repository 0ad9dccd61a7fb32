package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#7C3AED")
	muted   = lipgloss.Color("#6B7280")
	danger  = lipgloss.Color("#EF4444")
	fg      = lipgloss.Color("#E5E7EB")
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(fg).Background(primary).Bold(true).Padding(0, 1)

	dateStyle    = lipgloss.NewStyle().Foreground(muted)
	faintStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
)
