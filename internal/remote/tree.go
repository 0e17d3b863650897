package remote

import (
	"context"
	"log/slog"

	"github.com/worklens/worklens/internal/logging"
)

var treeLog = logging.ForComponent(logging.CompTree)

// NeedsSubqueryLoad reports whether expanding node requires a deep re-fetch:
// the node is a folder with loaded children, and at least one child claims
// children of its own that have not been fetched yet. One level is loaded
// ahead because the server caps nesting depth per call.
func NeedsSubqueryLoad(node *QueryNode) bool {
	if node == nil || !node.IsFolder || !node.Loaded() {
		return false
	}
	for _, child := range node.Children {
		if child != nil && child.IsFolder && child.HasChildren && !child.Loaded() {
			return true
		}
	}
	return false
}

// RetrieveSubqueries re-fetches node's subtree by path and merges it into the
// existing structure in place. Child node identity is preserved: references
// held by the UI (expansion state, selection) stay valid across the refresh.
// On failure the existing tree is left untouched.
func (c *Client) RetrieveSubqueries(ctx context.Context, node *QueryNode) error {
	fresh, err := c.FetchQuerySubtree(ctx, node.Path)
	if err != nil {
		return err
	}

	mergeNode(node, fresh)
	treeLog.Debug("subqueries_merged",
		slog.String("path", node.Path),
		slog.Int("children", len(node.Children)))
	return nil
}

// mergeNode overwrites dst's mutable attributes from src and reconciles the
// child sequences positionally. dst's identity (the node pointer and its ID)
// is untouched.
func mergeNode(dst, src *QueryNode) {
	dst.Name = src.Name
	dst.Path = src.Path
	dst.IsFolder = src.IsFolder
	dst.HasChildren = src.HasChildren

	if src.Children == nil {
		// Fresh fetch did not include children at this depth; whatever is
		// loaded locally is deeper than the fetch and stays as is.
		return
	}
	if dst.Children == nil {
		dst.Children = src.Children
		return
	}

	// Truncate, patch in place, then append extras.
	if len(dst.Children) > len(src.Children) {
		dst.Children = dst.Children[:len(src.Children)]
	}
	for i := range dst.Children {
		if dst.Children[i] == nil {
			dst.Children[i] = src.Children[i]
			continue
		}
		mergeNode(dst.Children[i], src.Children[i])
	}
	dst.Children = append(dst.Children, src.Children[len(dst.Children):]...)
}

// FindQueryPath returns the chain of nodes from a root down to the node with
// the given id, or nil when it is not in the loaded part of the tree. Used to
// restore the previously selected query across restarts.
func FindQueryPath(roots []*QueryNode, id string) []*QueryNode {
	for _, node := range roots {
		if node == nil {
			continue
		}
		if node.ID.String() == id {
			return []*QueryNode{node}
		}
		if chain := FindQueryPath(node.Children, id); chain != nil {
			return append([]*QueryNode{node}, chain...)
		}
	}
	return nil
}
