// Package audit persists a log of answered queries for offline review.
// Writes are best-effort: an audit failure never fails the request that
// produced it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one answered (or failed) query.
type Entry struct {
	RequestID    string
	Query        string
	IntentJSON   string
	SnippetCount int
	Answered     bool
	DurationMs   int64
	CreatedAt    time.Time
}

// Store writes query entries to a SQL database.
type Store struct {
	db       *sql.DB
	postgres bool
}

// Open connects to the audit database and ensures the schema exists.
// driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case "sqlite":
		db, err = sql.Open("sqlite3", dsn)
	case "postgres":
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported audit driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	s := &Store{db: db, postgres: driver == "postgres"}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.postgres {
		idCol = "id BIGSERIAL PRIMARY KEY"
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS query_log (
		%s,
		request_id TEXT NOT NULL,
		query TEXT NOT NULL,
		intent TEXT NOT NULL DEFAULT '',
		snippet_count INTEGER NOT NULL DEFAULT 0,
		answered BOOLEAN NOT NULL DEFAULT FALSE,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`, idCol)

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts one entry. CreatedAt defaults to now when unset.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	q := `INSERT INTO query_log (request_id, query, intent, snippet_count, answered, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if s.postgres {
		q = `INSERT INTO query_log (request_id, query, intent, snippet_count, answered, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	}

	if _, err := s.db.ExecContext(ctx, q,
		e.RequestID, e.Query, e.IntentJSON, e.SnippetCount, e.Answered, e.DurationMs, e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT request_id, query, intent, snippet_count, answered, duration_ms, created_at
		FROM query_log ORDER BY id DESC LIMIT ?`
	if s.postgres {
		q = `SELECT request_id, query, intent, snippet_count, answered, duration_ms, created_at
		FROM query_log ORDER BY id DESC LIMIT $1`
	}

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RequestID, &e.Query, &e.IntentJSON, &e.SnippetCount, &e.Answered, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
