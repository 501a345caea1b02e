package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rebeliceyang/lazyca/internal/admin"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = "2006-01-02 15:04:05"

// Entry kinds besides administration actions
const (
	KindDownload     = "download"
	KindNotification = "notification"
	KindCSVExport    = "csv-export"
)

// Entry is one thing the operator did against the backend
type Entry struct {
	ID           int
	Kind         string
	Endpoint     string
	TargetID     string
	Status       int
	ResultID     string
	Success      bool
	ErrorMessage string
	ExecutedAt   time.Time
}

// Store keeps the local action history in SQLite
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens or creates the history database at path. maxEntries bounds
// the table size; 0 keeps everything.
func NewStore(path string, maxEntries int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Add appends an entry and trims the oldest beyond the limit
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_history
		(kind, endpoint, target_id, status, result_id, success, error_message, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Kind,
		e.Endpoint,
		e.TargetID,
		e.Status,
		e.ResultID,
		e.Success,
		e.ErrorMessage,
		e.ExecutedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM action_history
			WHERE id NOT IN (SELECT id FROM action_history ORDER BY id DESC LIMIT ?)`, s.maxEntries)
	}
	return err
}

// RecordAction stores a dispatched administration action
func (s *Store) RecordAction(ctx context.Context, a admin.Entry) error {
	e := Entry{
		Kind:     a.Kind,
		Endpoint: a.Endpoint,
		TargetID: a.TargetID,
		Status:   a.Status,
		ResultID: a.ResultID,
		Success:  a.Err == nil,
	}
	if a.Err != nil {
		e.ErrorMessage = a.Err.Error()
	}
	return s.Add(ctx, e)
}

// GetRecent returns the most recent entries, newest first
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, endpoint, target_id, status, result_id, success, error_message, executed_at
		FROM action_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ForTarget returns the entries that acted on one CSR or certificate
func (s *Store) ForTarget(ctx context.Context, targetID string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, endpoint, target_id, status, result_id, success, error_message, executed_at
		FROM action_history
		WHERE target_id = ? OR result_id = ?
		ORDER BY id DESC
		LIMIT ?`, targetID, targetID, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.Kind,
			&e.Endpoint,
			&e.TargetID,
			&e.Status,
			&e.ResultID,
			&e.Success,
			&e.ErrorMessage,
			&executedAt,
		)
		if err != nil {
			return nil, err
		}

		e.ExecutedAt, _ = time.Parse(timeLayout, executedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
