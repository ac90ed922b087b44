package history

import (
	"context"
	"path/filepath"
	"testing"
)

func implementations(t *testing.T, limit int) map[string]History {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), limit)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]History{
		"memory": NewMemory(limit),
		"sqlite": sq,
	}
}

func push(t *testing.T, h History, doc, label string) Entry {
	t.Helper()
	e, err := h.Push(context.Background(), doc, label, []byte(label))
	if err != nil {
		t.Fatalf("Push(%s): %v", label, err)
	}
	return e
}

func TestUndoRedo(t *testing.T) {
	ctx := context.Background()
	for name, h := range implementations(t, 10) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := h.Undo(ctx, "d1"); ok || err != nil {
				t.Fatalf("Undo on empty history = %v, %v", ok, err)
			}

			root := push(t, h, "d1", "open")
			push(t, h, "d1", "addWidget")
			push(t, h, "d1", "groupWidgets")

			e, ok, err := h.Undo(ctx, "d1")
			if err != nil || !ok || e.Label != "addWidget" || string(e.Snapshot) != "addWidget" {
				t.Fatalf("Undo = %+v, %v, %v; want addWidget", e, ok, err)
			}
			e, ok, _ = h.Undo(ctx, "d1")
			if !ok || e.ID != root.ID {
				t.Fatalf("second Undo = %+v, want root", e)
			}
			if _, ok, _ := h.Undo(ctx, "d1"); ok {
				t.Error("Undo past the root should report false")
			}

			e, ok, _ = h.Redo(ctx, "d1")
			if !ok || e.Label != "addWidget" {
				t.Fatalf("Redo = %+v, want addWidget", e)
			}

			// A push after undo starts a new branch; redo follows it.
			push(t, h, "d1", "removeWidget")
			h.Undo(ctx, "d1")
			e, ok, _ = h.Redo(ctx, "d1")
			if !ok || e.Label != "removeWidget" {
				t.Errorf("Redo after branching = %+v, want removeWidget", e)
			}
			if _, ok, _ := h.Redo(ctx, "d1"); ok {
				t.Error("Redo at a leaf should report false")
			}

			cur, ok, _ := h.Current(ctx, "d1")
			if !ok || cur.Label != "removeWidget" {
				t.Errorf("Current = %+v, want removeWidget", cur)
			}

			entries, err := h.Entries(ctx, "d1")
			if err != nil {
				t.Fatalf("Entries: %v", err)
			}
			if len(entries) != 4 {
				t.Errorf("len(Entries) = %d, want 4", len(entries))
			}
			if entries[0].Label != "open" || entries[0].ParentID != "" {
				t.Errorf("first entry = %+v, want root", entries[0])
			}
		})
	}
}

func TestDocumentsAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, h := range implementations(t, 10) {
		t.Run(name, func(t *testing.T) {
			push(t, h, "d1", "a")
			push(t, h, "d1", "b")
			push(t, h, "d2", "x")

			if _, ok, _ := h.Undo(ctx, "d2"); ok {
				t.Error("d2 has a single node and cannot undo")
			}
			if err := h.Clear(ctx, "d1"); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if _, ok, _ := h.Current(ctx, "d1"); ok {
				t.Error("Current after Clear should report false")
			}
			if cur, ok, _ := h.Current(ctx, "d2"); !ok || cur.Label != "x" {
				t.Errorf("Clear(d1) touched d2: %+v", cur)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	for name, h := range implementations(t, 3) {
		t.Run(name, func(t *testing.T) {
			for _, l := range []string{"s0", "s1", "s2", "s3", "s4"} {
				push(t, h, "d1", l)
			}
			entries, _ := h.Entries(ctx, "d1")
			if len(entries) != 3 {
				t.Fatalf("len(Entries) = %d, want 3", len(entries))
			}
			if entries[0].Label != "s2" || entries[0].ParentID != "" {
				t.Errorf("oldest kept entry = %+v, want s2 as new root", entries[0])
			}

			// Undo walks back to the new root only.
			var labels []string
			for {
				e, ok, _ := h.Undo(ctx, "d1")
				if !ok {
					break
				}
				labels = append(labels, e.Label)
			}
			if len(labels) != 2 || labels[0] != "s3" || labels[1] != "s2" {
				t.Errorf("undo trail = %v, want [s3 s2]", labels)
			}
		})
	}
}
