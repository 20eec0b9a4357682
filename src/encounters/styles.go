package encounters

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Colors are named by the role they play in the builder.
var (
	brand   = lipgloss.Color("#E0A526")
	onBrand = lipgloss.Color("#111318")
	heading = lipgloss.Color("#5FB3D9")
	focus   = lipgloss.Color("#F2D16B")
	success = lipgloss.Color("#7FC97F")
	danger  = lipgloss.Color("#E0605A")
	ink     = lipgloss.Color("#D8DEE9")
	dim     = lipgloss.Color("#6B7280")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(onBrand).Background(brand).Padding(0, 2)
	subtitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(heading)
	normalStyle    = lipgloss.NewStyle().Foreground(ink)
	mutedStyle     = lipgloss.NewStyle().Foreground(dim).Italic(true)
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(focus)
	successStyle   = lipgloss.NewStyle().Foreground(success)
	errorStyle     = lipgloss.NewStyle().Foreground(danger)
	infoStyle      = lipgloss.NewStyle().Foreground(heading)
	buttonStyle    = lipgloss.NewStyle().Bold(true).Foreground(onBrand).Background(brand).Padding(0, 1)
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1)
	activePane     = paneStyle.BorderForeground(focus)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(heading).Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(dim).BorderBottom(true)
	s.Cell = s.Cell.Foreground(ink)
	s.Selected = s.Selected.Foreground(focus).Bold(true)
	return s
}
