package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setTestHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("WORKLENS_HOME", dir)
	ClearCache()
	t.Cleanup(ClearCache)
	return dir
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	setTestHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Download.BatchSize != 100 {
		t.Errorf("default batch size = %d, want 100", cfg.Download.BatchSize)
	}
	if cfg.Server.Collection != "defaultcollection" {
		t.Errorf("default collection = %q", cfg.Server.Collection)
	}
	if cfg.Theme != "dark" {
		t.Errorf("default theme = %q", cfg.Theme)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := setTestHome(t)

	content := `theme = "light"

[server]
url = "https://dev.example.com"
project = "Phoenix"
token_env = "MY_TOKEN"

[download]
batch_size = 50
include_history = true
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "https://dev.example.com" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Server.Project != "Phoenix" {
		t.Errorf("project = %q", cfg.Server.Project)
	}
	if cfg.Download.BatchSize != 50 {
		t.Errorf("batch size = %d", cfg.Download.BatchSize)
	}
	if !cfg.Download.IncludeHistory {
		t.Error("include_history not parsed")
	}
	// Defaults still applied for unset fields
	if cfg.Server.Collection != "defaultcollection" {
		t.Errorf("collection = %q", cfg.Server.Collection)
	}
}

func TestBatchSizeClamped(t *testing.T) {
	dir := setTestHome(t)

	content := "[download]\nbatch_size = 5000\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Download.BatchSize != 200 {
		t.Errorf("batch size = %d, want clamp to 200", cfg.Download.BatchSize)
	}
}

func TestParseErrorFallsBackToDefaults(t *testing.T) {
	dir := setTestHome(t)

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{{not toml"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err == nil {
		t.Error("expected parse error")
	}
	if cfg == nil || cfg.Download.BatchSize != 100 {
		t.Error("expected default config on parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	setTestHome(t)

	cfg, _ := Load()
	out := *cfg
	out.Server.URL = "https://tracker.internal"
	out.Download.IncludeHistory = true
	if err := Save(&out); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got.Server.URL != "https://tracker.internal" {
		t.Errorf("url after reload = %q", got.Server.URL)
	}
	if !got.Download.IncludeHistory {
		t.Error("include_history lost in round trip")
	}
}

func TestWatcherSignalsReload(t *testing.T) {
	dir := setTestHome(t)

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	content := "[server]\nurl = \"https://changed.example.com\"\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-w.ReloadChannel():
		if cfg.Server.URL != "https://changed.example.com" {
			t.Errorf("reloaded url = %q", cfg.Server.URL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload signal after config write")
	}
}
