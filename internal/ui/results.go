package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/worklens/worklens/internal/remote"
	"github.com/worklens/worklens/internal/store"
)

const idColumnWidth = 8

// Results renders matching records as a table using the display columns
// the stored query declared. Rows are replaced wholesale per publication,
// never appended, so a stale partial list is never visible.
type Results struct {
	columns []remote.Column
	records []*store.Record
	cursor  int
	offset  int
	width   int
	height  int
}

// NewResults creates an empty results table.
func NewResults() *Results {
	return &Results{}
}

// SetColumns sets the display columns for subsequent rows.
func (r *Results) SetColumns(columns []remote.Column) {
	r.columns = columns
}

// SetRecords replaces all rows in one step and clamps the cursor.
func (r *Results) SetRecords(records []*store.Record) {
	r.records = records
	if r.cursor >= len(records) {
		r.cursor = len(records) - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
	r.scrollToCursor()
}

// SetSize sets the pane dimensions in cells.
func (r *Results) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.scrollToCursor()
}

// Len returns the number of rows.
func (r *Results) Len() int {
	return len(r.records)
}

// Selected returns the record under the cursor, or nil when empty.
func (r *Results) Selected() *store.Record {
	if r.cursor < 0 || r.cursor >= len(r.records) {
		return nil
	}
	return r.records[r.cursor]
}

// MoveUp moves the cursor one row up.
func (r *Results) MoveUp() {
	if r.cursor > 0 {
		r.cursor--
		r.scrollToCursor()
	}
}

// MoveDown moves the cursor one row down.
func (r *Results) MoveDown() {
	if r.cursor < len(r.records)-1 {
		r.cursor++
		r.scrollToCursor()
	}
}

// PageUp moves the cursor one page up.
func (r *Results) PageUp() {
	r.cursor -= r.visibleRows()
	if r.cursor < 0 {
		r.cursor = 0
	}
	r.scrollToCursor()
}

// PageDown moves the cursor one page down.
func (r *Results) PageDown() {
	r.cursor += r.visibleRows()
	if r.cursor > len(r.records)-1 {
		r.cursor = len(r.records) - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
	r.scrollToCursor()
}

// visibleRows is the table body height (header takes one line).
func (r *Results) visibleRows() int {
	if r.height <= 1 {
		return 1
	}
	return r.height - 1
}

func (r *Results) scrollToCursor() {
	rows := r.visibleRows()
	if r.cursor < r.offset {
		r.offset = r.cursor
	}
	if r.cursor >= r.offset+rows {
		r.offset = r.cursor - rows + 1
	}
	if r.offset < 0 {
		r.offset = 0
	}
}

// displayColumns returns the columns to render. The id column always comes
// first; a query that declared no columns still shows id and title.
func (r *Results) displayColumns() []remote.Column {
	cols := []remote.Column{{Name: "ID", ReferenceName: store.FieldID}}
	for _, c := range r.columns {
		if c.ReferenceName == store.FieldID {
			continue
		}
		cols = append(cols, c)
	}
	if len(cols) == 1 {
		cols = append(cols, remote.Column{Name: "Title", ReferenceName: store.FieldTitle})
	}
	return cols
}

// columnWidths splits the pane width: fixed id column, the rest divided
// evenly among the remaining columns.
func (r *Results) columnWidths(cols []remote.Column) []int {
	widths := make([]int, len(cols))
	widths[0] = idColumnWidth
	rest := len(cols) - 1
	if rest == 0 {
		return widths
	}
	avail := r.width - idColumnWidth - rest // one space between columns
	if avail < rest {
		avail = rest
	}
	each := avail / rest
	for i := 1; i < len(cols); i++ {
		widths[i] = each
	}
	// Give the leftover cells to the last column.
	widths[len(widths)-1] += avail - each*rest
	return widths
}

func cell(value string, width int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(value, width, "…"), width)
}

// View renders the header plus the visible window of rows.
func (r *Results) View() string {
	cols := r.displayColumns()
	widths := r.columnWidths(cols)

	var b strings.Builder

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = cell(c.Name, widths[i])
	}
	b.WriteString(TableHeaderStyle.Render(strings.Join(header, " ")))

	if len(r.records) == 0 {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("no matches"))
		return b.String()
	}

	end := r.offset + r.visibleRows()
	if end > len(r.records) {
		end = len(r.records)
	}
	for i := r.offset; i < end; i++ {
		rec := r.records[i]
		parts := make([]string, len(cols))
		for j, c := range cols {
			parts[j] = cell(rec.Field(c.ReferenceName), widths[j])
		}
		line := strings.Join(parts, " ")

		b.WriteString("\n")
		if i == r.cursor {
			b.WriteString(TableRowSelStyle.Render(line))
		} else {
			b.WriteString(TableRowStyle.Render(line))
		}
	}
	return b.String()
}

// CountLine summarizes the row count for the status area.
func (r *Results) CountLine() string {
	switch len(r.records) {
	case 0:
		return TableCountStyle.Render("no results")
	case 1:
		return TableCountStyle.Render("1 result")
	default:
		return TableCountStyle.Render(fmt.Sprintf("%d results", len(r.records)))
	}
}
