// Package history keeps an append-only log of successful uploads in a local
// SQLite database. The log is informational: the single source of truth for
// "what should be deleted before the next upload" remains the state file.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one successful push.
type Record struct {
	RunID      string
	ContentID  string
	Source     string
	Theme      string
	UploadedAt time.Time
}

// Store is a SQLite-backed upload log.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) the history database.
// Use ":memory:" for an in-memory database in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		content_id TEXT NOT NULL,
		source TEXT NOT NULL,
		theme TEXT NOT NULL,
		uploaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_uploaded_at ON uploads(uploaded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one successful upload.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO uploads (run_id, content_id, source, theme, uploaded_at) VALUES (?, ?, ?, ?, ?)",
		rec.RunID, rec.ContentID, rec.Source, rec.Theme, rec.UploadedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert upload record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first, at most limit entries.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, content_id, source, theme, uploaded_at FROM uploads ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var uploadedUnix int64
		if err := rows.Scan(&rec.RunID, &rec.ContentID, &rec.Source, &rec.Theme, &uploadedUnix); err != nil {
			return nil, fmt.Errorf("scan upload record: %w", err)
		}
		rec.UploadedAt = time.Unix(uploadedUnix, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
