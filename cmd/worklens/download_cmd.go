package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/store"
)

// handleDownload executes a stored query and reports what a full download
// would mirror locally. Useful for checking a query id and timing.
func handleDownload(args []string) {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	history := fs.Bool("history", false, "also fetch per-item discussion history")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: worklens download [-history] <query-id>")
		os.Exit(1)
	}
	queryID, err := parseQueryID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, client := cliSetup()
	defer logging.Shutdown()

	ctx, cancel := signalContext()
	defer cancel()

	st := store.New(cfg.Download.BatchSize)
	showProgress := term.IsTerminal(int(os.Stderr.Fd()))
	err = st.Download(ctx, client, queryID, *history, func(f float64) {
		if showProgress {
			fmt.Fprintf(os.Stderr, "\rdownloading... %3.0f%%", f*100)
		}
	})
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Download failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d work items", st.Count())
	if cols := st.Columns(); len(cols) > 0 {
		fmt.Printf(", %d display columns", len(cols))
	}
	fmt.Println()
}
