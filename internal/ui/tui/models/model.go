package models

import tea "github.com/charmbracelet/bubbletea"

// Model is the interface every view model implements.  It mirrors tea.Model
// but returns the concrete interface so the app model can delegate without
// type assertions everywhere.
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Model, tea.Cmd)
	View() string
	Resize(width, height int)
	ViewType() View
}

// HandledMsg indicates a key press was consumed by a model with no further
// work to schedule.  The event string exists purely for trace logging.
type HandledMsg struct {
	Event string
}

// Handled builds a command that reports a consumed input
func Handled(event string) tea.Cmd {
	return func() tea.Msg {
		return HandledMsg{Event: event}
	}
}
