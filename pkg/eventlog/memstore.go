package eventlog

import (
	"context"
	"sort"
	"sync"
)

// MemStore is a thread-safe in-memory DurableLog, suitable for tests
// and development. The zero value is ready for use.
type MemStore struct {
	mu     sync.RWMutex
	events map[string]Event
	ids    []string // sorted ascending
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{events: make(map[string]Event)}
}

// Put appends an event. Returns ErrConflict if the ID already exists.
func (s *MemStore) Put(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil {
		s.events = make(map[string]Event)
	}
	if _, ok := s.events[e.ID]; ok {
		return ErrConflict
	}
	s.events[e.ID] = *e
	i := sort.SearchStrings(s.ids, e.ID)
	s.ids = append(s.ids, "")
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = e.ID
	return nil
}

// Get retrieves a single event by ID.
func (s *MemStore) Get(ctx context.Context, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// Since returns events with ID > afterID in ascending ID order.
func (s *MemStore) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := sort.SearchStrings(s.ids, afterID)
	if start < len(s.ids) && s.ids[start] == afterID {
		start++
	}
	out := []Event{}
	for _, id := range s.ids[start:] {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.events[id])
	}
	return out, nil
}

// All returns every event in ascending ID order.
func (s *MemStore) All(ctx context.Context) ([]Event, error) {
	return s.Since(ctx, "", 0)
}

// Count returns the number of stored events.
func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids), nil
}
