package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column is a fixed-width table column.
type Column struct {
	Title string
	Width int
}

// Row is one line of cell values.
type Row []string

// Table renders aligned columns. Cells longer than their column are cut
// and end in "…".
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // highlighted row, -1 for none
}

func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

func (t *Table) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)

	var sb strings.Builder
	line := func(cells []string) {
		sb.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		sb.WriteByte('\n')
	}

	cells := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cells[i] = headerStyle.Render(fit(col.Title, col.Width))
	}
	line(cells)
	for i, col := range t.Columns {
		cells[i] = StyleMeta.Render(strings.Repeat("─", col.Width))
	}
	line(cells)

	for r, row := range t.Rows {
		style := cellStyle
		if r == t.SelIdx {
			style = StyleSelected
		}
		for i, col := range t.Columns {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			cells[i] = style.Render(fit(v, col.Width))
		}
		line(cells)
	}
	return sb.String()
}

// fit pads or truncates s to exactly width display cells. Padding is done
// by hand because lipgloss wraps when Width and padding disagree.
func fit(s string, width int) string {
	w := lipgloss.Width(s)
	if w <= width {
		return s + strings.Repeat(" ", width-w)
	}
	if width <= 1 {
		return string([]rune(s)[:width])
	}
	runes := []rune(s)
	for lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// KeyValueBlock renders labelled values in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteByte('\n')
	}
	for _, p := range pairs {
		sb.WriteString("  " + StyleMeta.Render(fit(p[0]+":", 18)) + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(strings.TrimRight(sb.String(), "\n"))
}
