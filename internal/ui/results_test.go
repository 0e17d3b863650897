package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/worklens/worklens/internal/remote"
	"github.com/worklens/worklens/internal/store"
)

func testRecords(n int) []*store.Record {
	records := make([]*store.Record, n)
	for i := range records {
		records[i] = store.NewRecord(remote.WorkItem{
			ID: i + 1,
			Fields: map[string]string{
				store.FieldTitle: fmt.Sprintf("Item %d", i+1),
				"System.State":   "Active",
			},
		}, nil)
	}
	return records
}

func TestResultsDisplayColumns(t *testing.T) {
	r := NewResults()

	// No declared columns: id and title fall back in.
	cols := r.displayColumns()
	if len(cols) != 2 || cols[0].ReferenceName != store.FieldID || cols[1].ReferenceName != store.FieldTitle {
		t.Errorf("fallback columns = %+v", cols)
	}

	// Declared columns keep their order; a declared id is not duplicated.
	r.SetColumns([]remote.Column{
		{Name: "ID", ReferenceName: store.FieldID},
		{Name: "State", ReferenceName: "System.State"},
		{Name: "Title", ReferenceName: store.FieldTitle},
	})
	cols = r.displayColumns()
	if len(cols) != 3 {
		t.Fatalf("columns = %+v", cols)
	}
	if cols[0].ReferenceName != store.FieldID || cols[1].ReferenceName != "System.State" {
		t.Errorf("column order = %+v", cols)
	}
}

func TestResultsColumnWidthsFillPane(t *testing.T) {
	r := NewResults()
	r.SetSize(80, 20)
	r.SetColumns([]remote.Column{
		{Name: "State", ReferenceName: "System.State"},
		{Name: "Title", ReferenceName: store.FieldTitle},
	})

	cols := r.displayColumns()
	widths := r.columnWidths(cols)
	if widths[0] != idColumnWidth {
		t.Errorf("id width = %d", widths[0])
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	// Widths plus one separator space per gap fill the pane exactly.
	if total+len(widths)-1 != 80 {
		t.Errorf("total width = %d (+%d separators), want 80", total, len(widths)-1)
	}
}

func TestResultsReplaceClampsCursor(t *testing.T) {
	r := NewResults()
	r.SetSize(80, 10)
	r.SetRecords(testRecords(20))

	for i := 0; i < 15; i++ {
		r.MoveDown()
	}
	if r.Selected().ID() != 16 {
		t.Fatalf("cursor id = %d", r.Selected().ID())
	}

	// A new publication with fewer rows clamps the cursor in one step.
	r.SetRecords(testRecords(3))
	if r.Selected().ID() != 3 {
		t.Errorf("cursor after replace = %d, want 3", r.Selected().ID())
	}

	r.SetRecords(nil)
	if r.Selected() != nil {
		t.Error("selection should be nil for an empty table")
	}
}

func TestResultsPaging(t *testing.T) {
	r := NewResults()
	r.SetSize(80, 6) // 5 body rows
	r.SetRecords(testRecords(12))

	r.PageDown()
	if r.Selected().ID() != 6 {
		t.Errorf("after page down id = %d, want 6", r.Selected().ID())
	}
	r.PageDown()
	r.PageDown()
	if r.Selected().ID() != 12 {
		t.Errorf("page down past end id = %d, want 12", r.Selected().ID())
	}
	r.PageUp()
	r.PageUp()
	r.PageUp()
	if r.Selected().ID() != 1 {
		t.Errorf("page up past start id = %d, want 1", r.Selected().ID())
	}
}

func TestCellTruncatesAndPads(t *testing.T) {
	got := cell("short", 10)
	if len(got) != 10 {
		t.Errorf("padded cell = %q", got)
	}

	got = cell("a much longer value than fits", 10)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated cell = %q", got)
	}

	got = cell("line\nbreak", 20)
	if strings.Contains(got, "\n") {
		t.Errorf("cell kept a newline: %q", got)
	}
}
