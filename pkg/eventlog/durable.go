package eventlog

import (
	"context"
	"errors"
)

// Common errors returned by DurableLog implementations.
var (
	// ErrConflict indicates an event with the same ID already exists.
	// Because events are immutable and keyed by unique ID, callers
	// racing each other treat this as success.
	ErrConflict = errors.New("event already exists")

	// ErrNotFound indicates no event with the given ID exists.
	ErrNotFound = errors.New("event not found")
)

// DurableLog is the contract for persistent event storage, local or
// remote. Implementations must be safe for concurrent use.
type DurableLog interface {
	// Put appends an event keyed by its ID. Returns ErrConflict if the
	// ID is already present; the stored event is never overwritten.
	Put(ctx context.Context, e *Event) error

	// Get retrieves a single event by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Event, error)

	// Since returns events with ID > afterID in ascending ID order, at
	// most limit of them (limit <= 0 means no limit). afterID == ""
	// starts from the beginning.
	Since(ctx context.Context, afterID string, limit int) ([]Event, error)

	// All returns every event in ascending ID order.
	All(ctx context.Context) ([]Event, error)

	// Count returns the total number of stored events.
	Count(ctx context.Context) (int, error)
}
