package eventlog

import (
	"sort"
	"sync"
)

// Log is the in-memory, insertion-ordered event store shared by every
// component: the command processor appends to it, queries fold over it,
// and the replica mirrors it to durable storage. Iteration order is
// ascending event ID, which is the log's total order.
//
// Add is idempotent: merging two logs is a union by event ID, so
// replaying or re-pulling the same event is always safe. Log also
// fans out newly added events to subscribers, in-process, after the
// append has completed.
type Log struct {
	mu   sync.RWMutex
	byID map[string]*Event
	ids  []string // sorted ascending
	subs map[chan *Event]struct{}
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{
		byID: make(map[string]*Event),
		subs: make(map[chan *Event]struct{}),
	}
}

// Add appends an event and reports whether it was new. An event whose
// ID is already present is ignored; that is the normal outcome of a
// concurrent pull and not an error.
//
// The log keeps its own copy, so the caller may reuse e afterwards.
// Readers share that stored copy; see Events.
func (l *Log) Add(e *Event) bool {
	l.mu.Lock()
	if _, ok := l.byID[e.ID]; ok {
		l.mu.Unlock()
		return false
	}
	cp := *e
	l.byID[cp.ID] = &cp
	i := sort.SearchStrings(l.ids, cp.ID)
	l.ids = append(l.ids, "")
	copy(l.ids[i+1:], l.ids[i:])
	l.ids[i] = cp.ID

	for ch := range l.subs {
		select {
		case ch <- &cp:
		default:
			// subscriber is behind; drop to avoid blocking Add
		}
	}
	l.mu.Unlock()
	return true
}

// Get returns the event with the given ID. The event is the log's
// stored copy, shared with every other reader; treat it as immutable.
func (l *Log) Get(id string) (*Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.byID[id]
	return e, ok
}

// Events returns every event in ascending ID order. The slice is a
// snapshot; callers may fold over it without holding any lock. The
// events themselves are the log's stored copies and must not be
// modified.
func (l *Log) Events() []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Event, len(l.ids))
	for i, id := range l.ids {
		out[i] = l.byID[id]
	}
	return out
}

// Len returns the number of events in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

// LastID returns the highest event ID, or "" for an empty log. New
// events record it as their causal back-link.
func (l *Log) LastID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.ids) == 0 {
		return ""
	}
	return l.ids[len(l.ids)-1]
}

// Subscribe returns a buffered channel that receives events as they
// are added. Slow subscribers miss events rather than block the log;
// treat the channel as a change signal and re-read Events when exact
// delivery matters.
func (l *Log) Subscribe() chan *Event {
	ch := make(chan *Event, 64)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (l *Log) Unsubscribe(ch chan *Event) {
	l.mu.Lock()
	delete(l.subs, ch)
	l.mu.Unlock()
	close(ch)
}
