package session

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the session view.
type Styles struct {
	Header    lipgloss.Style
	Cursor    lipgloss.Style
	Dir       lipgloss.Style
	Symlink   lipgloss.Style
	File      lipgloss.Style
	Match     lipgloss.Style
	Ancestor  lipgloss.Style
	Size      lipgloss.Style
	Truncated lipgloss.Style
	Error     lipgloss.Style
	Status    lipgloss.Style
	StatusKey lipgloss.Style
	Degraded  lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Cursor:    lipgloss.NewStyle().Background(lipgloss.Color("236")).Bold(true),
		Dir:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Symlink:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		File:      lipgloss.NewStyle(),
		Match:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Ancestor:  lipgloss.NewStyle().Faint(true),
		Size:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Truncated: lipgloss.NewStyle().Faint(true).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Background(lipgloss.Color("235")),
		StatusKey: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Background(lipgloss.Color("235")),
		Degraded:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	}
}
