// Package eventlog holds the append-only event log that is the sole
// source of truth for the drive tree. Nodes, parent/child links and
// text fields have no stored representation of their own; they are
// derived by folding over the ordered events.
package eventlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeID identifies a node in the tree. IDs are opaque, unique and
// never reused.
type NodeID string

// NewNodeID returns a fresh node identifier (UUIDv7, time-ordered).
func NewNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()).String())
}

// NodeKind is the closed set of node types. A node's kind is fixed at
// creation; no event changes it.
type NodeKind string

const (
	KindFolder  NodeKind = "folder"
	KindFile    NodeKind = "file"
	KindText    NodeKind = "text"
	KindOutline NodeKind = "outline"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindFolder, KindFile, KindText, KindOutline:
		return true
	}
	return false
}

// EventType classifies events in the tree's history.
type EventType string

const (
	EventNodeCreated EventType = "NodeCreated"
	EventNodeMoved   EventType = "NodeMoved"
	EventTextEdited  EventType = "TextEdited"
	EventNodeDeleted EventType = "NodeDeleted"
)

// Event is a single immutable fact in the log. Events are flat records
// with a type discriminator; only the fields relevant to the type are
// set. They are keyed and totally ordered by ID.
type Event struct {
	// ID is the storage key and the sort key defining the log's total
	// order. See NewEventID for the format.
	ID string `json:"id"`

	// PID is the ID of the event that was last in the log when this one
	// was created. It is a causal back-link, informational only.
	PID string `json:"pid,omitempty"`

	Type EventType `json:"type"`
	Node NodeID    `json:"node"`

	// Kind is set for NodeCreated.
	Kind NodeKind `json:"kind,omitempty"`

	// Parent and Next are set for NodeMoved. Next, when present, is the
	// sibling the node was placed before; absent means last child.
	Parent NodeID `json:"parent,omitempty"`
	Next   NodeID `json:"next,omitempty"`

	// Field and Text are set for TextEdited.
	Field string `json:"field,omitempty"`
	Text  string `json:"text,omitempty"`
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %s node=%s", e.ID, e.Type, e.Node)
}

// eventIDFormat keeps every timestamp the same width so that
// lexicographic order of IDs matches chronological order. The stdlib
// RFC 3339 format trims trailing zeros and would break that.
const eventIDFormat = "2006-01-02T15:04:05.000Z"

// NewEventID returns a fresh event identifier: an ISO-8601 UTC
// timestamp, a "+" separator, and a UUIDv7 suffix. Ascending
// lexicographic order approximates creation order; ties at the same
// millisecond are broken arbitrarily by the suffix.
func NewEventID() string {
	return time.Now().UTC().Format(eventIDFormat) + "+" + uuid.Must(uuid.NewV7()).String()
}
