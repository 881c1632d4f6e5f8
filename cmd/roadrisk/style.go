package main

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

var (
	colorTitle   = lipgloss.Color("#8B5CF6")
	colorBorder  = lipgloss.Color("#475569")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")

	titleStyle = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

// card frames a scenario description under a title.
func card(title, body string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(titleStyle.Render(title) + "\n" + body)
}

// sideBySide lays the two cards of a round next to each other.
func sideBySide(a, b string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, a, "  ", b)
}

// riskLine renders a risk as "42.5% Moderado 🟡" in the level's color.
func riskLine(risk float64) string {
	level := roadrisk.LevelFor(risk)
	text := fmt.Sprintf("%s %s %s", roadrisk.Percentage(risk), level.Label(), level.Emoji())
	return lipgloss.NewStyle().Foreground(lipgloss.Color(level.Color())).Bold(true).Render(text)
}
