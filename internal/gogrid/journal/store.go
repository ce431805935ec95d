// Package journal keeps a local record of lifecycle operations issued
// through the CLI: what was asked of the provider, against which node, and
// how it ended. It records operations, never API responses, so it is an
// audit trail rather than a cache.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Outcomes of a journaled operation.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry is one journaled lifecycle operation.
type Entry struct {
	ID         string
	Operation  string // e.g. "create", "reboot", "destroy", "save-image"
	NodeName   string
	NodeID     string // empty while the provider hasn't assigned one
	PublicIP   string
	Detail     string
	Outcome    string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is a sqlite-backed journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Record appends one entry. A missing ID is filled in; a missing outcome
// defaults from the Error field.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
		if e.Error != "" {
			e.Outcome = OutcomeError
		}
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now().UTC()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now().UTC()
	}

	const q = `INSERT INTO operations
		(id, operation, node_name, node_id, public_ip, detail, outcome, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		e.ID, e.Operation, e.NodeName, e.NodeID, e.PublicIP,
		e.Detail, e.Outcome, e.Error, e.StartedAt, e.FinishedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record journal entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `SELECT id, operation, node_name, node_id, public_ip, detail, outcome, error, started_at, finished_at
		FROM operations ORDER BY finished_at DESC, id LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Operation, &e.NodeName, &e.NodeID, &e.PublicIP,
			&e.Detail, &e.Outcome, &e.Error, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
