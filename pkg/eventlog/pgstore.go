package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed DurableLog. It backs the replication
// server, where many replicas push and pull the shared log.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the events table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
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
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_events_node ON events(node)`)
	return err
}

// Put inserts an event. The primary key on id makes the append
// idempotent: a duplicate reports ErrConflict and stores nothing.
func (s *PgStore) Put(ctx context.Context, e *Event) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, pid, type, node, kind, parent_id, next_id, field, text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.PID, string(e.Type), string(e.Node), string(e.Kind),
		string(e.Parent), string(e.Next), e.Field, e.Text)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// Get retrieves a single event by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Event, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, pid, type, node, kind, parent_id, next_id, field, text
		FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// Since returns events with ID > afterID in ascending ID order. The ID
// is both the key and the sort key, so a plain range scan is the pull
// cursor.
func (s *PgStore) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	q := `
		SELECT id, pid, type, node, kind, parent_id, next_id, field, text
		FROM events WHERE id > $1 ORDER BY id ASC`
	args := []any{afterID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("since query: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// All returns every event in ascending ID order.
func (s *PgStore) All(ctx context.Context) ([]Event, error) {
	return s.Since(ctx, "", 0)
}

// Count returns the total number of stored events.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var typ, node, kind, parent, next string
	err := row.Scan(&e.ID, &e.PID, &typ, &node, &kind, &parent, &next, &e.Field, &e.Text)
	if err != nil {
		return nil, err
	}
	e.Type = EventType(typ)
	e.Node = NodeID(node)
	e.Kind = NodeKind(kind)
	e.Parent = NodeID(parent)
	e.Next = NodeID(next)
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
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
