package tree

import (
	"paperdrive/pkg/eventlog"
)

// The queries below are pure projections: each call folds over the
// full ordered event snapshot (or its reverse, for most-recent-wins
// answers) and holds no state between calls.

// RootNode returns the node of the first NodeCreated event in the log.
// ok is false for an empty log.
func RootNode(log *eventlog.Log) (eventlog.NodeID, bool) {
	for _, e := range log.Events() {
		if e.Type == eventlog.EventNodeCreated {
			return e.Node, true
		}
	}
	return "", false
}

// Exists reports whether the node currently exists: scanning newest to
// oldest, a NodeCreated before any NodeDeleted means yes, a
// NodeDeleted means no, neither means the node was never created.
func Exists(log *eventlog.Log, node eventlog.NodeID) bool {
	events := log.Events()
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Node != node {
			continue
		}
		switch e.Type {
		case eventlog.EventNodeCreated:
			return true
		case eventlog.EventNodeDeleted:
			return false
		}
	}
	return false
}

// Children returns the ordered child nodes of parent. The fold
// processes every NodeMoved event in the log, not only ones naming
// parent: a move to some other parent removes the node from this
// list, and a NodeDeleted removes it too. Later moves win; re-moving
// a node already in the list relocates it.
func Children(log *eventlog.Log, parent eventlog.NodeID) []eventlog.NodeID {
	children := []eventlog.NodeID{}
	for _, e := range log.Events() {
		switch e.Type {
		case eventlog.EventNodeMoved:
			if e.Parent == parent {
				children = remove(children, e.Node)
				if i := index(children, e.Next); e.Next != "" && i >= 0 {
					children = append(children, "")
					copy(children[i+1:], children[i:])
					children[i] = e.Node
				} else {
					children = append(children, e.Node)
				}
			} else {
				children = remove(children, e.Node)
			}
		case eventlog.EventNodeDeleted:
			children = remove(children, e.Node)
		}
	}
	return children
}

// Parent returns the parent assigned by the most recent NodeMoved
// event for node. ok is false for a node never moved anywhere: it is
// unattached (or the root).
func Parent(log *eventlog.Log, node eventlog.NodeID) (eventlog.NodeID, bool) {
	events := log.Events()
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Type == eventlog.EventNodeMoved && e.Node == node {
			return e.Parent, true
		}
	}
	return "", false
}

// Kind returns the node's kind from its NodeCreated event, which is
// unique over the log's lifetime. ok is false if the node was never
// created.
func Kind(log *eventlog.Log, node eventlog.NodeID) (eventlog.NodeKind, bool) {
	for _, e := range log.Events() {
		if e.Type == eventlog.EventNodeCreated && e.Node == node {
			return e.Kind, true
		}
	}
	return "", false
}

// Text returns the value of the node's field under last-write-wins:
// the text of the most recent TextEdited event for (node, field), or
// "" if the field was never set.
func Text(log *eventlog.Log, node eventlog.NodeID, field string) string {
	events := log.Events()
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Type == eventlog.EventTextEdited && e.Node == node && e.Field == field {
			return e.Text
		}
	}
	return ""
}

func index(s []eventlog.NodeID, id eventlog.NodeID) int {
	for i, v := range s {
		if v == id {
			return i
		}
	}
	return -1
}

func remove(s []eventlog.NodeID, id eventlog.NodeID) []eventlog.NodeID {
	if i := index(s, id); i >= 0 {
		return append(s[:i], s[i+1:]...)
	}
	return s
}
