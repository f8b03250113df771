package output

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorWarning = lipgloss.Color("#FFD700")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#8C8C8C")
)

// Styles holds the lipgloss styles used by the text renderer.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	// ID highlights entity ids.
	ID lipgloss.Style
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		Bold:    lipgloss.NewStyle().Bold(true),
		Info:    lipgloss.NewStyle().Foreground(colorPrimary),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Error:   lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		ID:      lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Bold:    plain,
		Info:    plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Muted:   plain,
		ID:      plain,
	}
}
