package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/dockman-dev/dockman/internal/resource"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// ColumnsFor returns the table layout of a resource kind.
func ColumnsFor(kind resource.Kind) []TableColumn {
	src := resource.Columns(kind)
	cols := make([]TableColumn, len(src))
	for i, c := range src {
		cols[i] = TableColumn{Title: c.Title, Width: c.Width}
	}
	return cols
}

// TableStyles returns the Bubbles table styling shared by the CLI and the
// dashboard. focused highlights the selected row.
func TableStyles(focused bool) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	if focused {
		s.Selected = s.Selected.
			Foreground(ColorPrimary).
			Background(ColorSecondary).
			Bold(true)
	} else {
		s.Selected = s.Cell
	}
	return s
}

// NewTable creates a new Bubbles table with default styling. A height of 0
// fits all rows.
func NewTable(columns []TableColumn, rows []table.Row, height int, focused bool) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	if height <= 0 {
		height = len(rows) + 1 // +1 for header
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(focused),
		table.WithHeight(height),
	)
	t.SetStyles(TableStyles(focused))
	return t
}

// ToRows converts string slices to table rows.
func ToRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, row := range rows {
		out[i] = table.Row(row)
	}
	return out
}

// RenderSimpleTable renders a non-interactive table string.
// This is for CLI output (not TUI), producing a simple formatted table.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := NewTable(columns, ToRows(rows), 0, false)
	return t.View()
}
