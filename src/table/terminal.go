package table

import (
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FB3D9")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D8DEE9")).Padding(0, 1)
)

// Terminal renders the table with box borders for plain terminal output.
func (t Table) Terminal() string {
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Labels()...).
		Rows(t.Strings()...).
		String()
}

// BubbleColumns sizes the columns for an interactive bubbles table. Each
// column is as wide as its widest cell, capped at maxWidth when maxWidth
// is positive.
func (t Table) BubbleColumns(maxWidth int) []btable.Column {
	rows := t.Strings()
	columns := make([]btable.Column, len(t.Headers))
	for i, h := range t.Headers {
		width := runewidth.StringWidth(h.Label)
		for _, row := range rows {
			if w := runewidth.StringWidth(row[i]); w > width {
				width = w
			}
		}
		if maxWidth > 0 && width > maxWidth {
			width = maxWidth
		}
		if width == 0 {
			width = 1
		}
		columns[i] = btable.Column{Title: h.Label, Width: width}
	}
	return columns
}

func (t Table) BubbleRows() []btable.Row {
	rows := t.Strings()
	out := make([]btable.Row, len(rows))
	for i, row := range rows {
		out[i] = btable.Row(row)
	}
	return out
}
