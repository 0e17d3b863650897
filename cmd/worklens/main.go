package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/statedb"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/ui"
)

const Version = "0.3.0"

// init sets up the color profile for consistent terminal colors.
func init() {
	initColorProfile()
}

// initColorProfile configures lipgloss based on terminal capabilities.
// WORKLENS_COLOR overrides detection: truecolor, 256, 16, none.
func initColorProfile() {
	switch strings.ToLower(os.Getenv("WORKLENS_COLOR")) {
	case "truecolor", "true", "24bit":
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	case "256", "ansi256":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return
	case "16", "ansi", "basic":
		lipgloss.SetColorProfile(termenv.ANSI)
		return
	case "none", "off", "ascii":
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	// Most modern emulators handle TrueColor even when TERM undersells it.
	term := os.Getenv("TERM")
	for _, t := range []string{"256color", "alacritty", "kitty", "wezterm", "xterm-direct"} {
		if strings.Contains(term, t) {
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		}
	}

	lipgloss.SetColorProfile(termenv.ANSI256)
}

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Printf("worklens v%s\n", Version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "download":
			handleDownload(args[1:])
			return
		case "search":
			handleSearch(args[1:])
			return
		case "queries":
			handleQueries(args[1:])
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
			printHelp()
			os.Exit(1)
		}
	}

	runTUI()
}

func printHelp() {
	fmt.Print(`worklens - live search over a work-tracking server

Usage:
  worklens                       Launch the interactive TUI
  worklens queries               List the saved query tree
  worklens download <query-id>   Execute a stored query and report the item count
  worklens search <query-id> <text...>
                                 Download and search, one "id - title" line per match
  worklens version               Print the version
  worklens help                  Show this help

Flags for download/search:
  -history                       Also fetch per-item discussion history

Configuration lives in ~/.worklens/config.toml (override the directory with
WORKLENS_HOME). The personal access token is read from the environment
variable named by server.token_env (default WORKLENS_TOKEN).
`)
}

// initLogging wires the rotating log file under the worklens directory.
func initLogging(cfg *config.Config) {
	dir, err := config.Dir()
	if err != nil {
		return
	}
	logging.Init(logging.Config{
		LogDir:    dir,
		Level:     cfg.Logs.Level,
		Format:    cfg.Logs.Format,
		MaxSizeMB: cfg.Logs.MaxSizeMB,
	})
}

func runTUI() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	initLogging(cfg)
	defer logging.Shutdown()

	client, err := buildClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	theme := cfg.Theme
	if theme == "system" {
		if isDark, err := dark.IsDarkMode(); err == nil && !isDark {
			ui.InitTheme("light")
		} else {
			ui.InitTheme("dark")
		}
	} else {
		ui.InitTheme(theme)
	}

	var state *statedb.StateDB
	if dir, err := config.Dir(); err == nil {
		state, err = statedb.Open(filepath.Join(dir, "state.db"))
		if err == nil {
			err = state.Migrate()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: state database unavailable: %v\n", err)
			state = nil
		}
	}
	if state != nil {
		defer state.Close()
	}

	var reloads <-chan *config.Config
	watcher, err := config.NewWatcher()
	if err == nil {
		reloads = watcher.ReloadChannel()
		defer watcher.Close()
	}

	app := ui.NewApp(ui.Options{
		Config:        cfg,
		Client:        client,
		Store:         store.New(cfg.Download.BatchSize),
		State:         state,
		ConfigReloads: reloads,
		Version:       Version,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetSender(p.Send)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
