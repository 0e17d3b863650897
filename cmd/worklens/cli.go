package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/remote"
)

const configHint = `No server configured. Create %s with:

  [server]
  url = "https://dev.example.com"
  collection = "defaultcollection"
  project = "MyProject"
  token_env = "WORKLENS_TOKEN"

and export the personal access token in WORKLENS_TOKEN.`

// buildClient validates the server settings and constructs the REST client.
func buildClient(cfg *config.Config) (*remote.Client, error) {
	if cfg.Server.URL == "" || cfg.Server.Project == "" {
		path, _ := config.Path()
		return nil, fmt.Errorf(configHint, path)
	}
	token := cfg.Token()
	if token == "" {
		return nil, fmt.Errorf("no token in $%s; export your personal access token there", cfg.Server.TokenEnv)
	}
	return remote.NewClient(remote.Settings{
		URL:               cfg.Server.URL,
		Collection:        cfg.Server.Collection,
		Project:           cfg.Server.Project,
		Token:             token,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
	}), nil
}

// cliSetup loads config, wires logging and builds the client for the
// non-interactive subcommands.
func cliSetup() (*config.Config, *remote.Client) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	initLogging(cfg)

	client, err := buildClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg, client
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseQueryID parses a stored query id argument.
func parseQueryID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q is not a query id (expected a GUID): %w", arg, err)
	}
	return id, nil
}
