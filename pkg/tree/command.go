// Package tree turns user intents into events and derives the current
// tree (parents, children, ordering, text fields, existence) by
// folding over the event log. Nothing here keeps state of its own:
// every answer is recomputed from the log it is given.
package tree

import (
	"errors"
	"fmt"

	"paperdrive/pkg/eventlog"
)

// Errors surfaced by commands and node operations.
var (
	// ErrNoParent means an operation needed a parent (for example
	// reordering relative to a root node) and the node has none.
	ErrNoParent = errors.New("node has no parent")

	// ErrNotFound means the node has no NodeCreated event in the log.
	ErrNotFound = errors.New("node not found")
)

// Command is a transient, unvalidated intent. Commands never persist;
// Dispatch translates each one into exactly one event.
type Command interface {
	isCommand()
}

// CreateNode creates a node of the given kind. The kind is fixed for
// the node's lifetime.
type CreateNode struct {
	Node eventlog.NodeID
	Kind eventlog.NodeKind
}

// MoveNode attaches Node under Parent. If Next names a current child
// of Parent, Node is placed immediately before it; otherwise Node
// becomes the last child.
type MoveNode struct {
	Node   eventlog.NodeID
	Parent eventlog.NodeID
	Next   eventlog.NodeID // optional
}

// EditText sets the value of one of the node's text fields. Fields
// have no schema; any name is a field.
type EditText struct {
	Node  eventlog.NodeID
	Field string
	Text  string
}

// DeleteNode removes the node from all future projections. Its
// historical events remain in the log.
type DeleteNode struct {
	Node eventlog.NodeID
}

func (CreateNode) isCommand() {}
func (MoveNode) isCommand()   {}
func (EditText) isCommand()   {}
func (DeleteNode) isCommand() {}

// Dispatch validates cmd structurally, synthesizes the matching event
// with a fresh ID and the current last event ID as its causal
// back-link, and appends it to the log.
//
// Validation is structural only. In particular a MoveNode naming a
// nonexistent node or parent is accepted; orphans are excluded at
// query time instead of being rejected at write time.
func Dispatch(log *eventlog.Log, cmd Command) (*eventlog.Event, error) {
	e := &eventlog.Event{
		ID:  eventlog.NewEventID(),
		PID: log.LastID(),
	}
	switch c := cmd.(type) {
	case CreateNode:
		if c.Node == "" {
			return nil, fmt.Errorf("create node: empty node id")
		}
		if !c.Kind.Valid() {
			return nil, fmt.Errorf("create node %s: unknown kind %q", c.Node, c.Kind)
		}
		e.Type = eventlog.EventNodeCreated
		e.Node = c.Node
		e.Kind = c.Kind
	case MoveNode:
		if c.Node == "" {
			return nil, fmt.Errorf("move node: empty node id")
		}
		if c.Parent == "" {
			return nil, fmt.Errorf("move node %s: empty parent id", c.Node)
		}
		e.Type = eventlog.EventNodeMoved
		e.Node = c.Node
		e.Parent = c.Parent
		e.Next = c.Next
	case EditText:
		if c.Node == "" {
			return nil, fmt.Errorf("edit text: empty node id")
		}
		if c.Field == "" {
			return nil, fmt.Errorf("edit text on %s: empty field name", c.Node)
		}
		e.Type = eventlog.EventTextEdited
		e.Node = c.Node
		e.Field = c.Field
		e.Text = c.Text
	case DeleteNode:
		if c.Node == "" {
			return nil, fmt.Errorf("delete node: empty node id")
		}
		e.Type = eventlog.EventNodeDeleted
		e.Node = c.Node
	default:
		return nil, fmt.Errorf("unknown command type %T", cmd)
	}
	log.Add(e)
	return e, nil
}
