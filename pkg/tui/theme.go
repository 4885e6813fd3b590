package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors of the client. All colors are ANSI 256-color
// codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	BorderColor lipgloss.Color
	FocusColor  lipgloss.Color

	Inbound  lipgloss.Color
	Outbound lipgloss.Color
	Error    lipgloss.Color
}

// DefaultTheme is tuned for dark terminals.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),
	BorderColor:        lipgloss.Color("240"),
	FocusColor:         lipgloss.Color("75"),
	Inbound:            lipgloss.Color("114"),
	Outbound:           lipgloss.Color("180"),
	Error:              lipgloss.Color("203"),
}

// pane returns the border style of a pane
func (theme Theme) pane(focused bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(theme.BorderColor)
	if focused {
		style = style.
			Border(lipgloss.ThickBorder()).
			BorderForeground(theme.FocusColor).
			Bold(true)
	}
	return style
}
