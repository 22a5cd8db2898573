package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#D4A017")
	muted       = lipgloss.Color("#7D7D7D")
	destructive = lipgloss.Color("#E53935")
	success     = lipgloss.Color("#8BC34A")
)

type styles struct {
	Title      lipgloss.Style
	Question   lipgloss.Style
	Cursor     lipgloss.Style
	Selected   lipgloss.Style
	Option     lipgloss.Style
	Muted      lipgloss.Style
	Notice     lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Help       lipgloss.Style
	Disclaimer lipgloss.Style
	Frame      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Question:   lipgloss.NewStyle().Bold(true),
		Cursor:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		Selected:   lipgloss.NewStyle().Foreground(success),
		Option:     lipgloss.NewStyle(),
		Muted:      lipgloss.NewStyle().Foreground(muted),
		Notice:     lipgloss.NewStyle().Foreground(accent).Italic(true),
		Error:      lipgloss.NewStyle().Foreground(destructive).Bold(true),
		Success:    lipgloss.NewStyle().Foreground(success).Bold(true),
		Help:       lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Disclaimer: lipgloss.NewStyle().Foreground(muted).Italic(true),
		Frame:      lipgloss.NewStyle().Padding(1, 2),
	}
}
