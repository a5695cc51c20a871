package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// Colors defines the color palette for the TUI.
var Colors = struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Text      lipgloss.Color

	// Status colors
	Pending    lipgloss.Color
	InProgress lipgloss.Color
}{
	Primary:   lipgloss.Color("#6C5CE7"), // Purple
	Secondary: lipgloss.Color("#A29BFE"), // Lavender
	Muted:     lipgloss.Color("#636E72"), // Gray
	Error:     lipgloss.Color("#D63031"), // Red
	Success:   lipgloss.Color("#00B894"), // Green
	Warning:   lipgloss.Color("#FDCB6E"), // Yellow
	Text:      lipgloss.Color("#DFE6E9"), // Light gray

	Pending:    lipgloss.Color("#74B9FF"), // Light blue
	InProgress: lipgloss.Color("#FDCB6E"), // Yellow
}

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	App      lipgloss.Style
	Header   lipgloss.Style
	Prompt   lipgloss.Style
	Session  lipgloss.Style
	TaskPath lipgloss.Style
	TaskKind lipgloss.Style
	Changes  lipgloss.Style
	TaskDesc lipgloss.Style
	ErrorMsg lipgloss.Style
	Notice   lipgloss.Style
	Help     lipgloss.Style

	// Status badges
	StatusPending    lipgloss.Style
	StatusInProgress lipgloss.Style
	StatusCompleted  lipgloss.Style
	StatusFailed     lipgloss.Style
}

// DefaultStyles returns the default styles for the TUI.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		Prompt: lipgloss.NewStyle().
			Foreground(Colors.Text).
			Italic(true).
			MarginBottom(1),

		Session: lipgloss.NewStyle().
			Bold(true),

		TaskPath: lipgloss.NewStyle().
			Foreground(Colors.Text),

		TaskKind: lipgloss.NewStyle().
			Foreground(Colors.Secondary).
			Width(7),

		Changes: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskDesc: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			PaddingLeft(4),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Warning),

		Help: lipgloss.NewStyle().
			MarginTop(1),

		StatusPending: lipgloss.NewStyle().
			Foreground(Colors.Pending),

		StatusInProgress: lipgloss.NewStyle().
			Foreground(Colors.InProgress),

		StatusCompleted: lipgloss.NewStyle().
			Foreground(Colors.Success),

		StatusFailed: lipgloss.NewStyle().
			Foreground(Colors.Error),
	}
}

// TaskStatusStyle returns the badge style for a task status.
func (s Styles) TaskStatusStyle(status domain.TaskStatus) lipgloss.Style {
	switch status {
	case domain.TaskInProgress:
		return s.StatusInProgress
	case domain.TaskCompleted:
		return s.StatusCompleted
	case domain.TaskFailed:
		return s.StatusFailed
	default:
		return s.StatusPending
	}
}

// SessionStatusStyle returns the badge style for a session status.
func (s Styles) SessionStatusStyle(status domain.SessionStatus) lipgloss.Style {
	switch status {
	case domain.SessionCompleted:
		return s.StatusCompleted
	case domain.SessionFailed:
		return s.StatusFailed
	default:
		return s.StatusInProgress
	}
}
