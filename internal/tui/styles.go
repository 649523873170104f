package tui

import "github.com/charmbracelet/lipgloss"

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	dangerColor  = lipgloss.Color("9")

	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	// Panel borders; the focused panel is drawn in the accent color.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor)

	FocusedPanelStyle = PanelStyle.
				BorderForeground(accentColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)
