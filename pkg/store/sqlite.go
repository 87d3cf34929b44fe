package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the SQLite workspace database: autosave snapshots of the
// network document and the recent-file list. It is not on the editing
// hot path; the engine never blocks on it.
type Store struct {
	db *sql.DB
}

// Snapshot is one autosaved document.
type Snapshot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Document  []byte    `json:"document"`
}

// RecentFile is one entry of the recently opened file list.
type RecentFile struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// Enable WAL mode (Write-Ahead Logging)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

		-- Full serialized network document
		document JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name, created_at);

	CREATE TABLE IF NOT EXISTS recent_files (
		path TEXT PRIMARY KEY,
		opened_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create workspace tables: %w", err)
	}

	return nil
}

// SaveSnapshot stores an autosave of the serialized document under a
// network name ("untitled" for unsaved networks).
func (s *Store) SaveSnapshot(ctx context.Context, name string, document []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, created_at, document) VALUES (?, ?, ?)`,
		name, time.Now().UTC(), document)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent autosave for a network name, or
// sql.ErrNoRows when none exists.
func (s *Store) LatestSnapshot(ctx context.Context, name string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, document FROM snapshots
		 WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT 1`, name)
	var snap Snapshot
	if err := row.Scan(&snap.ID, &snap.Name, &snap.CreatedAt, &snap.Document); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns autosaves for a network name, newest first.
func (s *Store) ListSnapshots(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, document FROM snapshots
		 WHERE name = ? ORDER BY created_at DESC, id DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.CreatedAt, &snap.Document); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the newest keep autosaves per network name and
// deletes the rest. Returns the number of rows removed.
func (s *Store) PruneSnapshots(ctx context.Context, name string, keep int) (int64, error) {
	if keep <= 0 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE name = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE name = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)`, name, name, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// TouchRecentFile records that a network file was opened or saved.
func (s *Store) TouchRecentFile(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recent_files (path, opened_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at`,
		path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record recent file: %w", err)
	}
	return nil
}

// RecentFiles returns recently opened files, newest first.
func (s *Store) RecentFiles(ctx context.Context, limit int) ([]RecentFile, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, opened_at FROM recent_files ORDER BY opened_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent files: %w", err)
	}
	defer rows.Close()

	var out []RecentFile
	for rows.Next() {
		var rf RecentFile
		if err := rows.Scan(&rf.Path, &rf.OpenedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent file: %w", err)
		}
		out = append(out, rf)
	}
	return out, rows.Err()
}
