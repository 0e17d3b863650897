package ui

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/worklens/worklens/internal/remote"
)

// treeRow is one visible line in the query tree pane.
type treeRow struct {
	node  *remote.QueryNode
	depth int
}

// Tree is the saved-query hierarchy pane. Node pointers come from the
// remote package and keep their identity across subtree refreshes, so
// expansion state keyed by node id stays valid after a lazy reload.
type Tree struct {
	roots    []*remote.QueryNode
	expanded map[uuid.UUID]bool
	cursor   int
	offset   int
	width    int
	height   int

	// filter is a fuzzy pattern over full query paths; "" shows the
	// normal expand/collapse view instead.
	filter string
	rows   []treeRow
}

// NewTree creates an empty query tree pane.
func NewTree() *Tree {
	return &Tree{expanded: make(map[uuid.UUID]bool)}
}

// SetRoots replaces the tree's root nodes and rebuilds the visible rows.
func (t *Tree) SetRoots(roots []*remote.QueryNode) {
	t.roots = roots
	t.refresh()
}

// SetSize sets the pane dimensions in cells.
func (t *Tree) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.scrollToCursor()
}

// SetFilter sets the fuzzy filter pattern. An empty pattern restores the
// hierarchical view.
func (t *Tree) SetFilter(pattern string) {
	t.filter = pattern
	t.cursor = 0
	t.offset = 0
	t.refresh()
}

// Filtering reports whether a fuzzy filter is active.
func (t *Tree) Filtering() bool {
	return t.filter != ""
}

// Len returns the number of visible rows.
func (t *Tree) Len() int {
	return len(t.rows)
}

// Selected returns the node under the cursor, or nil when the tree is empty.
func (t *Tree) Selected() *remote.QueryNode {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return nil
	}
	return t.rows[t.cursor].node
}

// MoveUp moves the cursor one row up.
func (t *Tree) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.scrollToCursor()
	}
}

// MoveDown moves the cursor one row down.
func (t *Tree) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.scrollToCursor()
	}
}

// IsExpanded reports whether a folder node is currently expanded.
func (t *Tree) IsExpanded(id uuid.UUID) bool {
	return t.expanded[id]
}

// ToggleSelected flips the expansion of the folder under the cursor and
// returns the node. Non-folder nodes are returned unchanged.
func (t *Tree) ToggleSelected() *remote.QueryNode {
	node := t.Selected()
	if node == nil || !node.IsFolder {
		return node
	}
	t.expanded[node.ID] = !t.expanded[node.ID]
	t.refresh()
	return node
}

// Refresh rebuilds the visible rows, e.g. after a subtree merge changed
// children beneath an expanded folder.
func (t *Tree) Refresh() {
	t.refresh()
}

// SelectByID expands ancestors as needed and places the cursor on the node
// with the given id. Returns false when the id is not in the tree.
func (t *Tree) SelectByID(id uuid.UUID) bool {
	path := remote.FindQueryPath(t.roots, id.String())
	if path == nil {
		return false
	}
	for _, ancestor := range path[:len(path)-1] {
		t.expanded[ancestor.ID] = true
	}
	t.filter = ""
	t.refresh()
	for i, row := range t.rows {
		if row.node.ID == id {
			t.cursor = i
			t.scrollToCursor()
			return true
		}
	}
	return false
}

func (t *Tree) refresh() {
	if t.filter != "" {
		t.rows = t.filteredRows()
	} else {
		t.rows = t.rows[:0]
		t.flatten(t.roots, 0)
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.scrollToCursor()
}

func (t *Tree) flatten(nodes []*remote.QueryNode, depth int) {
	for _, node := range nodes {
		t.rows = append(t.rows, treeRow{node: node, depth: depth})
		if node.IsFolder && t.expanded[node.ID] {
			t.flatten(node.Children, depth+1)
		}
	}
}

// rowSource adapts tree rows to the fuzzy matcher over full query paths.
type rowSource []treeRow

func (r rowSource) String(i int) string { return r[i].node.Path }
func (r rowSource) Len() int            { return len(r) }

// filteredRows flattens every loaded node regardless of expansion and
// fuzzy-matches the pattern against full paths, best match first.
func (t *Tree) filteredRows() []treeRow {
	var all []treeRow
	var collect func(nodes []*remote.QueryNode)
	collect = func(nodes []*remote.QueryNode) {
		for _, node := range nodes {
			if !node.IsFolder {
				all = append(all, treeRow{node: node})
			}
			collect(node.Children)
		}
	}
	collect(t.roots)

	matches := fuzzy.FindFrom(t.filter, rowSource(all))
	rows := make([]treeRow, len(matches))
	for i, m := range matches {
		rows[i] = all[m.Index]
	}
	return rows
}

func (t *Tree) scrollToCursor() {
	if t.height <= 0 {
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the visible window of tree rows.
func (t *Tree) View() string {
	if len(t.rows) == 0 {
		if t.filter != "" {
			return DimStyle.Render("no matching queries")
		}
		return DimStyle.Render("no queries loaded")
	}

	var b strings.Builder
	end := t.offset + t.height
	if t.height <= 0 || end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.offset; i < end; i++ {
		row := t.rows[i]
		line := t.renderRow(row, i == t.cursor)
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (t *Tree) renderRow(row treeRow, selected bool) string {
	node := row.node

	var mark string
	style := QueryStyle
	switch {
	case node.IsFolder && t.expanded[node.ID]:
		mark = "▼"
		style = FolderStyle
	case node.IsFolder:
		mark = "▶"
		style = FolderCollapsedStyle
	default:
		mark = "•"
	}

	label := node.Name
	if t.filter != "" {
		// Filtered rows are flat; the path disambiguates the hit.
		label = node.Path
	}

	indent := strings.Repeat("  ", row.depth)
	text := indent + mark + " " + label
	if node.IsFolder && node.HasChildren && !node.Loaded() {
		text += " …"
	}
	if t.width > 0 {
		text = runewidth.Truncate(text, t.width, "…")
	}

	if selected {
		return TreeSelectedStyle.Render(text)
	}
	return style.Render(text)
}
