package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/remote"
)

// handleQueries prints the saved query tree, two levels deep per node as
// the server delivers it.
func handleQueries(args []string) {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: worklens queries")
		os.Exit(1)
	}

	_, client := cliSetup()
	defer logging.Shutdown()

	ctx, cancel := signalContext()
	defer cancel()

	roots, err := client.ListTopLevelQueries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listing queries failed: %v\n", err)
		os.Exit(1)
	}

	printQueryTree(os.Stdout, roots, 0)
}

// printQueryTree writes one line per node, folders marked with a trailing
// slash and unloaded subtrees with an ellipsis.
func printQueryTree(w io.Writer, nodes []*remote.QueryNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		switch {
		case node.IsFolder && node.HasChildren && !node.Loaded():
			fmt.Fprintf(w, "%s%s/ …\n", indent, node.Name)
		case node.IsFolder:
			fmt.Fprintf(w, "%s%s/\n", indent, node.Name)
		default:
			fmt.Fprintf(w, "%s%s  [%s]\n", indent, node.Name, node.ID)
		}
		printQueryTree(w, node.Children, depth+1)
	}
}
