// Package history records document snapshots for undo and redo.
//
// History is a tree rather than a stack: pushing after an undo starts a new
// branch and keeps the old one, and redo follows the most recently created
// branch. Each node holds an opaque snapshot of the whole document (the
// store writes the record export of the document).
//
// Two implementations are provided: [Memory] for tests and short-lived
// sessions, and [SQLite] which keeps history across runs. Both prune the
// oldest nodes once a document has more than the configured limit,
// re-parenting the children of a pruned node onto its parent. The current
// node is never pruned.
package history

import (
	"context"
	"time"
)

// DefaultLimit is the number of nodes kept per document.
const DefaultLimit = 100

// Entry is one node of a document's history.
type Entry struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parentId,omitempty"`
	Label     string    `json:"label"`
	Snapshot  []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// History stores snapshot trees keyed by document id.
type History interface {
	// Push adds a child of the current node and makes it current.
	Push(ctx context.Context, docID, label string, snapshot []byte) (Entry, error)

	// Undo moves to the parent of the current node and returns it. ok is
	// false when the current node has no parent.
	Undo(ctx context.Context, docID string) (e Entry, ok bool, err error)

	// Redo moves to the newest child of the current node and returns it.
	Redo(ctx context.Context, docID string) (e Entry, ok bool, err error)

	// Current returns the current node.
	Current(ctx context.Context, docID string) (e Entry, ok bool, err error)

	// Entries returns every node of docID, oldest first, without snapshots.
	Entries(ctx context.Context, docID string) ([]Entry, error)

	// Clear forgets the history of docID.
	Clear(ctx context.Context, docID string) error

	Close() error
}
