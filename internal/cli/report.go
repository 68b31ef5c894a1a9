package cli

import (
	"strings"

	"github.com/Veraticus/tally/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// RenderMonthlyReport renders a two-column month/total table followed by a
// grand total. An empty slice renders a short notice instead.
func RenderMonthlyReport(username string, months []model.MonthlySpend) string {
	title := "Monthly spending for " + username
	if len(months) == 0 {
		return RenderBox(title, mutedStyle.Render("No transactions recorded yet."))
	}

	monthWidth := len("Month")
	amountWidth := len("Total")
	amounts := make([]string, len(months))
	grand := decimal.Zero
	for i, m := range months {
		amounts[i] = m.TotalSpent.StringFixed(2)
		amountWidth = max(amountWidth, len(amounts[i]))
		monthWidth = max(monthWidth, len(m.Month))
		grand = grand.Add(m.TotalSpent)
	}
	grandText := grand.StringFixed(2)
	amountWidth = max(amountWidth, len(grandText))

	monthCol := lipgloss.NewStyle().Width(monthWidth + 2)
	amountCol := lipgloss.NewStyle().Width(amountWidth).Align(lipgloss.Right)

	rows := make([]string, 0, len(months)+2)
	rows = append(rows, headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, monthCol.Render("Month"), amountCol.Render("Total")),
	))
	for i, m := range months {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, monthCol.Render(m.Month), amountCol.Render(amounts[i])))
	}
	rows = append(rows, totalStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, monthCol.Render("All"), amountCol.Render(grandText)),
	))

	return RenderBox(title, strings.Join(rows, "\n"))
}
