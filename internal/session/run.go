package session

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sh1zen/wisu/internal/config"
	"github.com/sh1zen/wisu/internal/filter"
)

// Run drives a full interactive session and returns the path the user
// chose to print on exit, if any.
func Run(cfg *config.Config, logger *slog.Logger, hooks *filter.Registry) (string, error) {
	m, err := New(cfg, logger, hooks)
	if err != nil {
		return "", err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	out, err := p.Run()
	if err != nil {
		return "", err
	}
	if final, ok := out.(*Model); ok {
		return final.QuitPath, nil
	}
	return "", nil
}
