// Package statedb persists small bits of UI state (selected query, download
// stats) in SQLite. The downloaded snapshot itself is never persisted; it is
// rebuilt from the server on every download.
package statedb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion tracks the current database schema version.
const SchemaVersion = 1

// StateDB wraps a SQLite database for worklens state.
// Safe for concurrent use within one process; WAL mode plus a busy timeout
// keeps concurrent processes from tripping over each other.
type StateDB struct {
	db *sql.DB
}

// DownloadStat records the outcome of one successful query download.
type DownloadStat struct {
	QueryID        string
	QueryName      string
	DownloadedAt   time.Time
	RecordCount    int
	IncludeHistory bool
}

// Open creates or opens a SQLite database at dbPath.
func Open(dbPath string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("statedb: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("statedb: open: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("statedb: %s: %w", pragma, err)
		}
	}

	return &StateDB{db: db}, nil
}

// Migrate creates tables if they do not exist.
func (s *StateDB) Migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS download_stats (
	query_id        TEXT PRIMARY KEY,
	query_name      TEXT NOT NULL DEFAULT '',
	downloaded_at   INTEGER NOT NULL,
	record_count    INTEGER NOT NULL,
	include_history INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("statedb: migrate: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		fmt.Sprint(SchemaVersion))
	if err != nil {
		return fmt.Errorf("statedb: schema version: %w", err)
	}
	return nil
}

// Close checkpoints WAL and closes the database.
func (s *StateDB) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// SetSelectedQuery remembers the query the user last selected, so it can be
// reselected after a restart. An empty id clears the selection.
func (s *StateDB) SetSelectedQuery(id string) error {
	if id == "" {
		_, err := s.db.Exec(`DELETE FROM metadata WHERE key = 'selected_query'`)
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES ('selected_query', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, id)
	return err
}

// SelectedQuery returns the last selected query id, or "" when none is set.
func (s *StateDB) SelectedQuery() (string, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT value FROM metadata WHERE key = 'selected_query'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordDownload upserts the stats for one completed download.
func (s *StateDB) RecordDownload(stat DownloadStat) error {
	history := 0
	if stat.IncludeHistory {
		history = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO download_stats (query_id, query_name, downloaded_at, record_count, include_history)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(query_id) DO UPDATE SET
			query_name      = excluded.query_name,
			downloaded_at   = excluded.downloaded_at,
			record_count    = excluded.record_count,
			include_history = excluded.include_history`,
		stat.QueryID, stat.QueryName, stat.DownloadedAt.Unix(), stat.RecordCount, history)
	return err
}

// LastDownload returns the stats for a query, or nil when it was never
// downloaded.
func (s *StateDB) LastDownload(queryID string) (*DownloadStat, error) {
	row := s.db.QueryRow(
		`SELECT query_id, query_name, downloaded_at, record_count, include_history
		 FROM download_stats WHERE query_id = ?`, queryID)
	stat, err := scanStat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stat, nil
}

// RecentDownloads lists downloads, most recent first.
func (s *StateDB) RecentDownloads(limit int) ([]DownloadStat, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT query_id, query_name, downloaded_at, record_count, include_history
		 FROM download_stats ORDER BY downloaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DownloadStat
	for rows.Next() {
		stat, err := scanStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStat(row rowScanner) (*DownloadStat, error) {
	var stat DownloadStat
	var ts int64
	var history int
	if err := row.Scan(&stat.QueryID, &stat.QueryName, &ts, &stat.RecordCount, &history); err != nil {
		return nil, err
	}
	stat.DownloadedAt = time.Unix(ts, 0)
	stat.IncludeHistory = history != 0
	return &stat, nil
}
