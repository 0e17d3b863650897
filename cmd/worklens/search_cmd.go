package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/store"
)

// handleSearch downloads a stored query's result set and filters it with
// the same AND-of-substrings matching the TUI uses.
func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	history := fs.Bool("history", false, "also fetch and search discussion history")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: worklens search [-history] <query-id> <text...>")
		os.Exit(1)
	}
	queryID, err := parseQueryID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	text := strings.Join(fs.Args()[1:], " ")

	cfg, client := cliSetup()
	defer logging.Shutdown()

	ctx, cancel := signalContext()
	defer cancel()

	st := store.New(cfg.Download.BatchSize)
	if err := st.Download(ctx, client, queryID, *history, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Download failed: %v\n", err)
		os.Exit(1)
	}

	records, err := st.Search(ctx, store.ParseQuery(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID() < records[j].ID() })

	for _, rec := range records {
		fmt.Println(rec.String())
	}
	fmt.Fprintf(os.Stderr, "%d of %d items match\n", len(records), st.Count())
}
