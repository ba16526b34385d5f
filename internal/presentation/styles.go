package presentation

import "github.com/charmbracelet/lipgloss"

var (
	hardColor  = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	softColor  = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	okColor    = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	mutedColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}

	hardHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(hardColor)
	softHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(softColor)
	entityStyle     = lipgloss.NewStyle().Bold(true)
	nameStyle       = lipgloss.NewStyle().Foreground(mutedColor)
	okStyle         = lipgloss.NewStyle().Bold(true).Foreground(okColor)
	summaryStyle    = lipgloss.NewStyle().Foreground(mutedColor)
)

func headerStyle(hard bool) lipgloss.Style {
	if hard {
		return hardHeaderStyle
	}
	return softHeaderStyle
}
