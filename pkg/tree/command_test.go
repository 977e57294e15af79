package tree

import (
	"testing"

	"paperdrive/pkg/eventlog"
)

func TestDispatchOneEventPerCommand(t *testing.T) {
	log := eventlog.NewLog()
	cmds := []Command{
		CreateNode{Node: "n1", Kind: eventlog.KindFolder},
		MoveNode{Node: "n2", Parent: "n1"},
		EditText{Node: "n1", Field: "name", Text: "stuff"},
		DeleteNode{Node: "n2"},
	}
	for i, cmd := range cmds {
		if _, err := Dispatch(log, cmd); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		if log.Len() != i+1 {
			t.Fatalf("after command %d: want %d events, got %d", i, i+1, log.Len())
		}
	}
}

func TestDispatchCausalLink(t *testing.T) {
	log := eventlog.NewLog()
	first, err := Dispatch(log, CreateNode{Node: "n1", Kind: eventlog.KindFolder})
	if err != nil {
		t.Fatal(err)
	}
	if first.PID != "" {
		t.Errorf("first event pid: want empty, got %q", first.PID)
	}
	second, err := Dispatch(log, EditText{Node: "n1", Field: "name", Text: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if second.PID != first.ID {
		t.Errorf("second event pid: want %q, got %q", first.ID, second.PID)
	}
}

func TestDispatchStructuralErrors(t *testing.T) {
	log := eventlog.NewLog()
	bad := []Command{
		CreateNode{Node: "", Kind: eventlog.KindFolder},
		CreateNode{Node: "n1", Kind: "directory"},
		MoveNode{Node: "", Parent: "p"},
		MoveNode{Node: "n1", Parent: ""},
		EditText{Node: "n1", Field: ""},
		DeleteNode{Node: ""},
	}
	for i, cmd := range bad {
		if _, err := Dispatch(log, cmd); err == nil {
			t.Errorf("command %d (%#v): want error, got nil", i, cmd)
		}
	}
	if log.Len() != 0 {
		t.Fatalf("rejected commands must not append: log has %d events", log.Len())
	}
}

// TestDispatchLenientMove: moving a node under a parent that was never
// created is accepted at write time. Queries still fold the move.
func TestDispatchLenientMove(t *testing.T) {
	log := eventlog.NewLog()
	if _, err := Dispatch(log, CreateNode{Node: "n1", Kind: eventlog.KindOutline}); err != nil {
		t.Fatal(err)
	}
	if _, err := Dispatch(log, MoveNode{Node: "n1", Parent: "ghost"}); err != nil {
		t.Fatalf("lenient move: %v", err)
	}
	if got, ok := Parent(log, "n1"); !ok || got != "ghost" {
		t.Errorf("parent: want ghost, got %q (ok=%v)", got, ok)
	}
	if children := Children(log, "ghost"); len(children) != 1 || children[0] != "n1" {
		t.Errorf("children of ghost: want [n1], got %v", children)
	}
}
