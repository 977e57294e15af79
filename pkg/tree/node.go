package tree

import (
	"paperdrive/pkg/eventlog"
)

// Node is a stateless handle on one node of the tree: a log reference
// plus an ID. Handles cache nothing; every accessor re-runs a query,
// so two handles with the same ID are interchangeable.
type Node struct {
	log *eventlog.Log
	id  eventlog.NodeID
}

// NewNode returns a handle for id. The node need not exist.
func NewNode(log *eventlog.Log, id eventlog.NodeID) Node {
	return Node{log: log, id: id}
}

// Root returns a handle on the tree's root node, the first node ever
// created. ok is false for an empty log.
func Root(log *eventlog.Log) (Node, bool) {
	id, ok := RootNode(log)
	if !ok {
		return Node{}, false
	}
	return NewNode(log, id), true
}

// Get returns a handle on id if the node currently exists.
func Get(log *eventlog.Log, id eventlog.NodeID) (Node, bool) {
	n := NewNode(log, id)
	if !n.Exists() {
		return Node{}, false
	}
	return n, true
}

// Create makes a new node of the given kind and, when parent is
// non-nil, moves it under that parent as its last child. This is the
// one command that appends two events.
func Create(log *eventlog.Log, kind eventlog.NodeKind, parent *Node) (Node, error) {
	id := eventlog.NewNodeID()
	if _, err := Dispatch(log, CreateNode{Node: id, Kind: kind}); err != nil {
		return Node{}, err
	}
	if parent != nil {
		if _, err := Dispatch(log, MoveNode{Node: id, Parent: parent.id}); err != nil {
			return Node{}, err
		}
	}
	return NewNode(log, id), nil
}

// ID returns the node's identifier.
func (n Node) ID() eventlog.NodeID { return n.id }

// Exists reports whether the node currently exists.
func (n Node) Exists() bool { return Exists(n.log, n.id) }

// Kind returns the node's kind, or ErrNotFound for a node never
// created.
func (n Node) Kind() (eventlog.NodeKind, error) {
	k, ok := Kind(n.log, n.id)
	if !ok {
		return "", ErrNotFound
	}
	return k, nil
}

func (n Node) isKind(k eventlog.NodeKind) bool {
	got, ok := Kind(n.log, n.id)
	return ok && got == k
}

func (n Node) IsFolder() bool  { return n.isKind(eventlog.KindFolder) }
func (n Node) IsFile() bool    { return n.isKind(eventlog.KindFile) }
func (n Node) IsText() bool    { return n.isKind(eventlog.KindText) }
func (n Node) IsOutline() bool { return n.isKind(eventlog.KindOutline) }

// Parent returns the node's current parent. ok is false for the root
// and for unattached nodes.
func (n Node) Parent() (Node, bool) {
	id, ok := Parent(n.log, n.id)
	if !ok {
		return Node{}, false
	}
	return NewNode(n.log, id), true
}

// Children returns the node's children in sibling order.
func (n Node) Children() []Node {
	ids := Children(n.log, n.id)
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = NewNode(n.log, id)
	}
	return out
}

// FirstChild returns the first child, if any.
func (n Node) FirstChild() (Node, bool) {
	children := n.Children()
	if len(children) == 0 {
		return Node{}, false
	}
	return children[0], true
}

// LastChild returns the last child, if any.
func (n Node) LastChild() (Node, bool) {
	children := n.Children()
	if len(children) == 0 {
		return Node{}, false
	}
	return children[len(children)-1], true
}

// Siblings returns the node's parent's children, or just the node
// itself when it has no parent.
func (n Node) Siblings() []Node {
	if parent, ok := n.Parent(); ok {
		return parent.Children()
	}
	return []Node{n}
}

// SiblingIndex returns the node's position among its siblings, or -1
// if it is not in its parent's children list.
func (n Node) SiblingIndex() int {
	for i, s := range n.Siblings() {
		if s.id == n.id {
			return i
		}
	}
	return -1
}

// PreviousSibling returns the sibling immediately before the node.
func (n Node) PreviousSibling() (Node, bool) {
	siblings := n.Siblings()
	i := n.SiblingIndex()
	if i <= 0 {
		return Node{}, false
	}
	return siblings[i-1], true
}

// NextSibling returns the sibling immediately after the node.
func (n Node) NextSibling() (Node, bool) {
	siblings := n.Siblings()
	i := n.SiblingIndex()
	if i < 0 || i+1 >= len(siblings) {
		return Node{}, false
	}
	return siblings[i+1], true
}

// MoveBefore places the node immediately before target, under
// target's parent. Returns ErrNoParent when target is rootless: a
// root cannot anchor a reorder.
func (n Node) MoveBefore(target Node) error {
	parent, ok := target.Parent()
	if !ok {
		return ErrNoParent
	}
	_, err := Dispatch(n.log, MoveNode{Node: n.id, Parent: parent.id, Next: target.id})
	return err
}

// MoveAfter places the node immediately after target, under target's
// parent, using target's next sibling (if any) as the insertion
// anchor. Returns ErrNoParent when target is rootless.
func (n Node) MoveAfter(target Node) error {
	parent, ok := target.Parent()
	if !ok {
		return ErrNoParent
	}
	cmd := MoveNode{Node: n.id, Parent: parent.id}
	if next, ok := target.NextSibling(); ok {
		cmd.Next = next.id
	}
	_, err := Dispatch(n.log, cmd)
	return err
}

// MoveInside appends the node as target's last child.
func (n Node) MoveInside(target Node) error {
	_, err := Dispatch(n.log, MoveNode{Node: n.id, Parent: target.id})
	return err
}

// Delete removes the node from all future projections.
func (n Node) Delete() error {
	_, err := Dispatch(n.log, DeleteNode{Node: n.id})
	return err
}

// Above returns the node one step up in document order: the bottom of
// the previous sibling's subtree, or the parent when there is no
// previous sibling.
func (n Node) Above() (Node, bool) {
	if prev, ok := n.PreviousSibling(); ok {
		return prev.bottomOfSubtree(), true
	}
	return n.Parent()
}

// Below returns the node one step down in document order: the first
// child, or the nearest next sibling walking up from the node.
func (n Node) Below() (Node, bool) {
	if first, ok := n.FirstChild(); ok {
		return first, true
	}
	return n.belowSubtree()
}

// bottomOfSubtree descends to the last child repeatedly.
func (n Node) bottomOfSubtree() Node {
	if last, ok := n.LastChild(); ok {
		return last.bottomOfSubtree()
	}
	return n
}

// belowSubtree walks up from the node to the first ancestor (or the
// node itself) that has a next sibling and returns that sibling. ok
// is false once the root is reached with no further siblings.
func (n Node) belowSubtree() (Node, bool) {
	if next, ok := n.NextSibling(); ok {
		return next, true
	}
	if parent, ok := n.Parent(); ok {
		return parent.belowSubtree()
	}
	return Node{}, false
}

// Name returns the node's "name" field ("" when unset).
func (n Node) Name() string { return Text(n.log, n.id, "name") }

// SetName sets the node's "name" field.
func (n Node) SetName(name string) error {
	_, err := Dispatch(n.log, EditText{Node: n.id, Field: "name", Text: name})
	return err
}

// Note returns the node's "note" field ("" when unset).
func (n Node) Note() string { return Text(n.log, n.id, "note") }

// SetNote sets the node's "note" field.
func (n Node) SetNote(note string) error {
	_, err := Dispatch(n.log, EditText{Node: n.id, Field: "note", Text: note})
	return err
}

// Text returns the node's "text" field ("" when unset).
func (n Node) Text() string { return Text(n.log, n.id, "text") }

// SetText sets the node's "text" field.
func (n Node) SetText(text string) error {
	_, err := Dispatch(n.log, EditText{Node: n.id, Field: "text", Text: text})
	return err
}

// Field returns an arbitrary text field of the node ("" when unset).
func (n Node) Field(field string) string { return Text(n.log, n.id, field) }

// SetField sets an arbitrary text field of the node.
func (n Node) SetField(field, text string) error {
	_, err := Dispatch(n.log, EditText{Node: n.id, Field: field, Text: text})
	return err
}
