package tree

import (
	"testing"

	"paperdrive/pkg/eventlog"
)

// buildOutline sets up a small document:
//
//	root
//	  a
//	    a1
//	    a2
//	  b
func buildOutline(t *testing.T) (log *eventlog.Log, root, a, a1, a2, b Node) {
	t.Helper()
	log = eventlog.NewLog()
	var err error
	if root, err = Create(log, eventlog.KindFolder, nil); err != nil {
		t.Fatal(err)
	}
	if a, err = Create(log, eventlog.KindOutline, &root); err != nil {
		t.Fatal(err)
	}
	if a1, err = Create(log, eventlog.KindOutline, &a); err != nil {
		t.Fatal(err)
	}
	if a2, err = Create(log, eventlog.KindOutline, &a); err != nil {
		t.Fatal(err)
	}
	if b, err = Create(log, eventlog.KindOutline, &root); err != nil {
		t.Fatal(err)
	}
	return
}

func TestCreateEventCount(t *testing.T) {
	log := eventlog.NewLog()
	root, err := Create(log, eventlog.KindFolder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if log.Len() != 1 {
		t.Fatalf("parentless create: want 1 event, got %d", log.Len())
	}
	if _, err := Create(log, eventlog.KindOutline, &root); err != nil {
		t.Fatal(err)
	}
	if log.Len() != 3 {
		t.Fatalf("parented create: want 3 events total, got %d", log.Len())
	}
}

func TestGet(t *testing.T) {
	log, _, a, _, _, _ := buildOutline(t)
	if _, ok := Get(log, a.ID()); !ok {
		t.Error("existing node: want ok")
	}
	if _, ok := Get(log, "missing"); ok {
		t.Error("unknown node: want not ok")
	}
	if err := a.Delete(); err != nil {
		t.Fatal(err)
	}
	if _, ok := Get(log, a.ID()); ok {
		t.Error("deleted node: want not ok")
	}
}

func TestSiblingNavigation(t *testing.T) {
	_, _, a, a1, a2, b := buildOutline(t)
	if got := a.SiblingIndex(); got != 0 {
		t.Errorf("a index: want 0, got %d", got)
	}
	if got := b.SiblingIndex(); got != 1 {
		t.Errorf("b index: want 1, got %d", got)
	}
	if next, ok := a.NextSibling(); !ok || next.ID() != b.ID() {
		t.Errorf("a next: want b, got %v (ok=%v)", next.ID(), ok)
	}
	if prev, ok := b.PreviousSibling(); !ok || prev.ID() != a.ID() {
		t.Errorf("b prev: want a, got %v (ok=%v)", prev.ID(), ok)
	}
	if _, ok := a.PreviousSibling(); ok {
		t.Error("first child: want no previous sibling")
	}
	if _, ok := b.NextSibling(); ok {
		t.Error("last child: want no next sibling")
	}
	if first, ok := a.FirstChild(); !ok || first.ID() != a1.ID() {
		t.Errorf("a first child: want a1, got %v", first.ID())
	}
	if last, ok := a.LastChild(); !ok || last.ID() != a2.ID() {
		t.Errorf("a last child: want a2, got %v", last.ID())
	}
}

func TestAboveBelowDocumentOrder(t *testing.T) {
	_, root, a, a1, a2, b := buildOutline(t)

	// Walking down from the root visits a, a1, a2, b.
	order := []Node{a, a1, a2, b}
	cur := root
	for i, want := range order {
		next, ok := cur.Below()
		if !ok {
			t.Fatalf("below step %d: want %v, got nothing", i, want.ID())
		}
		if next.ID() != want.ID() {
			t.Fatalf("below step %d: want %v, got %v", i, want.ID(), next.ID())
		}
		cur = next
	}
	if _, ok := cur.Below(); ok {
		t.Error("last node in document: want nothing below")
	}

	// b's Above is the bottom of a's subtree, not a itself.
	if above, ok := b.Above(); !ok || above.ID() != a2.ID() {
		t.Errorf("above b: want a2, got %v (ok=%v)", above.ID(), ok)
	}
	// A first child's Above is its parent.
	if above, ok := a1.Above(); !ok || above.ID() != a.ID() {
		t.Errorf("above a1: want a, got %v (ok=%v)", above.ID(), ok)
	}
	if _, ok := root.Above(); ok {
		t.Error("root: want nothing above")
	}
}

func TestMoveBeforeAfter(t *testing.T) {
	log, root, a, _, _, b := buildOutline(t)

	if err := b.MoveBefore(a); err != nil {
		t.Fatal(err)
	}
	wantChildren(t, log, root.ID(), b.ID(), a.ID())

	if err := b.MoveAfter(a); err != nil {
		t.Fatal(err)
	}
	wantChildren(t, log, root.ID(), a.ID(), b.ID())

	// Anchoring on a rootless node is refused.
	if err := b.MoveBefore(root); err != ErrNoParent {
		t.Errorf("move before root: want ErrNoParent, got %v", err)
	}
	if err := b.MoveAfter(root); err != ErrNoParent {
		t.Errorf("move after root: want ErrNoParent, got %v", err)
	}
}

func TestMoveAfterMiddleSibling(t *testing.T) {
	log, _, a, a1, a2, b := buildOutline(t)

	// a has children [a1, a2]; moving b after a1 lands between them.
	if err := b.MoveAfter(a1); err != nil {
		t.Fatal(err)
	}
	wantChildren(t, log, a.ID(), a1.ID(), b.ID(), a2.ID())
}

func TestMoveInside(t *testing.T) {
	log, root, a, a1, a2, b := buildOutline(t)
	if err := b.MoveInside(a); err != nil {
		t.Fatal(err)
	}
	wantChildren(t, log, a.ID(), a1.ID(), a2.ID(), b.ID())
	wantChildren(t, log, root.ID(), a.ID())
}

func TestTextFields(t *testing.T) {
	_, _, a, _, _, _ := buildOutline(t)
	if a.Name() != "" || a.Note() != "" || a.Text() != "" {
		t.Error("fresh node: want all fields empty")
	}
	if err := a.SetName("chapter"); err != nil {
		t.Fatal(err)
	}
	if err := a.SetNote("draft"); err != nil {
		t.Fatal(err)
	}
	if err := a.SetText("body"); err != nil {
		t.Fatal(err)
	}
	if err := a.SetField("color", "blue"); err != nil {
		t.Fatal(err)
	}
	if got := a.Name(); got != "chapter" {
		t.Errorf("name: want chapter, got %q", got)
	}
	if got := a.Note(); got != "draft" {
		t.Errorf("note: want draft, got %q", got)
	}
	if got := a.Text(); got != "body" {
		t.Errorf("text: want body, got %q", got)
	}
	if got := a.Field("color"); got != "blue" {
		t.Errorf("color: want blue, got %q", got)
	}
}

func TestKindPredicates(t *testing.T) {
	log := eventlog.NewLog()
	folder, err := Create(log, eventlog.KindFolder, nil)
	if err != nil {
		t.Fatal(err)
	}
	file, err := Create(log, eventlog.KindFile, &folder)
	if err != nil {
		t.Fatal(err)
	}
	if !folder.IsFolder() || folder.IsFile() {
		t.Error("folder predicates wrong")
	}
	if !file.IsFile() || file.IsOutline() {
		t.Error("file predicates wrong")
	}
	if _, err := NewNode(log, "missing").Kind(); err != ErrNotFound {
		t.Errorf("kind of unknown node: want ErrNotFound, got %v", err)
	}
}
