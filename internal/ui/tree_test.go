package ui

import (
	"testing"

	"github.com/google/uuid"

	"github.com/worklens/worklens/internal/remote"
)

func queryNode(b byte, name, path string) *remote.QueryNode {
	return &remote.QueryNode{
		ID:   uuid.UUID{15: b},
		Name: name,
		Path: path,
	}
}

func folderNode(b byte, name, path string, children ...*remote.QueryNode) *remote.QueryNode {
	n := queryNode(b, name, path)
	n.IsFolder = true
	n.HasChildren = len(children) > 0
	n.Children = children
	return n
}

func testRoots() []*remote.QueryNode {
	return []*remote.QueryNode{
		folderNode(1, "Shared Queries", "Shared Queries",
			queryNode(2, "Active Bugs", "Shared Queries/Active Bugs"),
			folderNode(3, "Sprints", "Shared Queries/Sprints",
				queryNode(4, "Current Sprint", "Shared Queries/Sprints/Current Sprint"),
			),
		),
		folderNode(5, "My Queries", "My Queries",
			queryNode(6, "Assigned to me", "My Queries/Assigned to me"),
		),
	}
}

func TestTreeCollapsedShowsOnlyRoots(t *testing.T) {
	tree := NewTree()
	tree.SetRoots(testRoots())

	if tree.Len() != 2 {
		t.Fatalf("visible rows = %d, want 2", tree.Len())
	}
	if tree.Selected().Name != "Shared Queries" {
		t.Errorf("selected = %q", tree.Selected().Name)
	}
}

func TestTreeExpandRevealsChildren(t *testing.T) {
	tree := NewTree()
	tree.SetRoots(testRoots())

	node := tree.ToggleSelected()
	if node == nil || !tree.IsExpanded(node.ID) {
		t.Fatal("root folder did not expand")
	}
	// Shared Queries + 2 children + My Queries
	if tree.Len() != 4 {
		t.Fatalf("visible rows = %d, want 4", tree.Len())
	}

	tree.MoveDown()
	if tree.Selected().Name != "Active Bugs" {
		t.Errorf("selected after move = %q", tree.Selected().Name)
	}

	// Collapse again.
	tree.MoveUp()
	tree.ToggleSelected()
	if tree.Len() != 2 {
		t.Errorf("visible rows after collapse = %d, want 2", tree.Len())
	}
}

func TestTreeToggleIgnoresQueries(t *testing.T) {
	tree := NewTree()
	tree.SetRoots(testRoots())
	tree.ToggleSelected()
	tree.MoveDown() // Active Bugs

	node := tree.ToggleSelected()
	if node == nil || node.IsFolder {
		t.Fatalf("expected the query node, got %+v", node)
	}
	if tree.Len() != 4 {
		t.Errorf("toggling a query changed visible rows: %d", tree.Len())
	}
}

func TestTreeSelectByIDExpandsAncestors(t *testing.T) {
	tree := NewTree()
	roots := testRoots()
	tree.SetRoots(roots)

	target := roots[0].Children[1].Children[0] // Current Sprint
	if !tree.SelectByID(target.ID) {
		t.Fatal("SelectByID did not find the node")
	}
	if tree.Selected() != target {
		t.Errorf("selected = %v, want Current Sprint", tree.Selected())
	}
	if !tree.IsExpanded(roots[0].ID) || !tree.IsExpanded(roots[0].Children[1].ID) {
		t.Error("ancestors were not expanded")
	}

	if tree.SelectByID(uuid.UUID{15: 99}) {
		t.Error("SelectByID found a node that does not exist")
	}
}

func TestTreeFuzzyFilterFlattensQueries(t *testing.T) {
	tree := NewTree()
	tree.SetRoots(testRoots())

	tree.SetFilter("sprint")
	if !tree.Filtering() {
		t.Fatal("filter not active")
	}
	if tree.Len() != 1 {
		t.Fatalf("filtered rows = %d, want 1", tree.Len())
	}
	if tree.Selected().Name != "Current Sprint" {
		t.Errorf("filtered selection = %q", tree.Selected().Name)
	}

	// Folders never appear in the filtered view.
	tree.SetFilter("queries")
	for i := 0; i < tree.Len(); i++ {
		if tree.Selected().IsFolder {
			t.Error("folder leaked into filtered rows")
		}
		tree.MoveDown()
	}

	tree.SetFilter("")
	if tree.Filtering() {
		t.Error("filter still active after clearing")
	}
	if tree.Len() != 2 {
		t.Errorf("rows after clearing filter = %d, want 2", tree.Len())
	}
}

func TestTreeSurvivesSubtreeMerge(t *testing.T) {
	tree := NewTree()
	roots := testRoots()
	tree.SetRoots(roots)
	tree.ToggleSelected() // expand Shared Queries

	before := tree.Selected()

	// A merge mutates children in place; visible rows must follow.
	roots[0].Children = append(roots[0].Children,
		queryNode(7, "Resolved", "Shared Queries/Resolved"))
	tree.Refresh()

	if tree.Len() != 5 {
		t.Fatalf("rows after merge = %d, want 5", tree.Len())
	}
	if tree.Selected() != before {
		t.Error("cursor node changed identity across a merge")
	}
}
