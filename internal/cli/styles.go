// Package cli renders terminal output for the tally commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#5B8DEF")
	successColor = lipgloss.Color("#4ECDC4")
	warningColor = lipgloss.Color("#FFE66D")
	errorColor   = lipgloss.Color("#FF6B6B")
	mutedColor   = lipgloss.Color("#666666")
	ruleColor    = lipgloss.Color("#333")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ruleColor).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ruleColor)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

func status(color lipgloss.Color, icon, message string) string {
	return lipgloss.NewStyle().Foreground(color).Render(icon + " " + message)
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return status(successColor, "✓", message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return status(warningColor, "!", message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return status(errorColor, "✗", message)
}

// RenderBox renders content under a bold title inside a rounded border.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", content))
}
