package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is a static table rendered with padded, aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string

	// styleRow optionally picks the style of a body row.
	styleRow func(i int) (lipgloss.Style, bool)
}

func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row. Missing cells render empty and extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// StyleRows sets a per-row style. fn returns false to use the body style.
func (t *Table) StyleRows(fn func(i int) (lipgloss.Style, bool)) {
	t.styleRow = fn
}

// Render draws the table. An empty table renders as the empty string.
func (t *Table) Render(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	// Width includes the horizontal padding.
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	sep := styles.Muted.Render("|")
	line := func(sb *strings.Builder, cells []string, style lipgloss.Style) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Padding(0, 1).Width(w).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}
	line(&sb, t.Headers, styles.Header)
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for i, row := range t.Rows {
		style := styles.Body
		if t.styleRow != nil {
			if s, ok := t.styleRow(i); ok {
				style = s
			}
		}
		line(&sb, row, style)
	}
	return sb.String()
}
