// Package tui runs the terminal interface.  All screen logic lives in the
// models subpackage; this package only assembles and starts the bubbletea
// program.
package tui

import (
	"github.com/Karasuhime/yozora/internal/config"
	"github.com/Karasuhime/yozora/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until it exits
func Run(cfg *config.Config) error {
	p := tea.NewProgram(models.NewAppModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
