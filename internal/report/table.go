// Package report renders ranked comparisons for the terminal.
package report

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Headers are the table columns, matching the dashboard.
var Headers = []string{"#", "Item", "Stack", "From", "To", "Difference", "Times", "%"}

// Rows converts the first n records (all when n <= 0) into table cells.
func Rows(records []models.ComparisonRecord, n int) [][]string {
	if n <= 0 || n > len(records) {
		n = len(records)
	}
	rows := make([][]string, 0, n)
	for i, r := range records[:n] {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Name,
			strconv.FormatInt(r.StackSize, 10),
			r.APrice.String(),
			r.BPrice.String(),
			r.DiffPrice.String(),
			compare.FormatMultiplier(r.DiffPercentage),
			compare.FormatPercentage(r.DiffPercentage),
		})
	}
	return rows
}

// Table renders the first n records as a bordered table.
func Table(records []models.ComparisonRecord, n int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(Headers...).
		Rows(Rows(records, n)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return cellStyle
			default:
				return numberStyle
			}
		})
	return t.Render()
}
