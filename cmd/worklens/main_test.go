package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/remote"
)

func TestParseQueryID(t *testing.T) {
	want := "11111111-2222-3333-4444-555555555555"
	id, err := parseQueryID(want)
	if err != nil {
		t.Fatalf("parseQueryID: %v", err)
	}
	if id.String() != want {
		t.Errorf("id = %s", id)
	}

	if _, err := parseQueryID("not-a-guid"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestBuildClientValidatesConfig(t *testing.T) {
	cfg := &config.Config{}
	if _, err := buildClient(cfg); err == nil {
		t.Error("expected error for missing server settings")
	}

	cfg.Server.URL = "https://dev.example.com"
	cfg.Server.Project = "Fabrikam"
	cfg.Server.TokenEnv = "WORKLENS_TEST_TOKEN"
	if _, err := buildClient(cfg); err == nil || !strings.Contains(err.Error(), "WORKLENS_TEST_TOKEN") {
		t.Errorf("expected token error naming the env var, got %v", err)
	}

	t.Setenv("WORKLENS_TEST_TOKEN", "secret")
	client, err := buildClient(cfg)
	if err != nil {
		t.Fatalf("buildClient: %v", err)
	}
	if client == nil {
		t.Fatal("nil client")
	}
}

func TestPrintQueryTree(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	roots := []*remote.QueryNode{
		{
			Name: "Shared Queries", IsFolder: true, HasChildren: true,
			Children: []*remote.QueryNode{
				{ID: id, Name: "Active Bugs"},
				{Name: "Sprints", IsFolder: true, HasChildren: true},
			},
		},
	}

	var buf bytes.Buffer
	printQueryTree(&buf, roots, 0)
	out := buf.String()

	if !strings.Contains(out, "Shared Queries/\n") {
		t.Errorf("folder line missing:\n%s", out)
	}
	if !strings.Contains(out, "  Active Bugs  ["+id.String()+"]") {
		t.Errorf("query line missing:\n%s", out)
	}
	if !strings.Contains(out, "  Sprints/ …") {
		t.Errorf("unloaded folder marker missing:\n%s", out)
	}
}
