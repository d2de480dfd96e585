package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tallr-app/tallr/internal/core"
)

// Base styles
var (
	// TitleStyle is for titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// HeaderStyle is for table column headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	// MutedStyle is for secondary text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// ErrorBannerStyle is for error display.
	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	// PinStyle marks pinned sessions.
	PinStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Doctor check styles
	OKStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarnStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	FailStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

// State styles
var (
	pendingStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	workingStyle = lipgloss.NewStyle().Foreground(ColorInfo)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	idleStyle    = lipgloss.NewStyle().Foreground(ColorTextMuted)
)

// StateStyle returns the display style for a task state.
func StateStyle(state core.TaskState) lipgloss.Style {
	switch {
	case state.IsPending():
		return pendingStyle
	case state.IsWorking():
		return workingStyle
	case state.IsError():
		return errorStyle
	case state.IsDone():
		return doneStyle
	default:
		return idleStyle
	}
}

// ColorAccentFor returns the accent color for a task state.
func ColorAccentFor(state core.TaskState) lipgloss.Color {
	switch {
	case state.IsPending():
		return ColorWarning
	case state.IsWorking():
		return ColorInfo
	case state.IsError():
		return ColorError
	case state.IsDone():
		return ColorSuccess
	default:
		return ColorTextMuted
	}
}
