package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the local durable log: a single-file SQLite database
// each replica keeps on disk so the tree survives restarts and edits
// made offline are replayed on the next start.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	pid       TEXT NOT NULL DEFAULT '',
	type      TEXT NOT NULL,
	node      TEXT NOT NULL,
	kind      TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	next_id   TEXT NOT NULL DEFAULT '',
	field     TEXT NOT NULL DEFAULT '',
	text      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_node ON events(node);
`

// OpenSQLiteStore opens (or creates) the store at path. Use ":memory:"
// for a throwaway store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put inserts an event, or reports ErrConflict if the ID exists.
func (s *SQLiteStore) Put(ctx context.Context, e *Event) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO events (id, pid, type, node, kind, parent_id, next_id, field, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PID, string(e.Type), string(e.Node), string(e.Kind),
		string(e.Parent), string(e.Next), e.Field, e.Text)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Get retrieves a single event by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pid, type, node, kind, parent_id, next_id, field, text
		FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// Since returns events with ID > afterID in ascending ID order.
func (s *SQLiteStore) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	q := `
		SELECT id, pid, type, node, kind, parent_id, next_id, field, text
		FROM events WHERE id > ? ORDER BY id ASC`
	args := []any{afterID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("since query: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return events, nil
}

// All returns every event in ascending ID order.
func (s *SQLiteStore) All(ctx context.Context) ([]Event, error) {
	return s.Since(ctx, "", 0)
}

// Count returns the total number of stored events.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
