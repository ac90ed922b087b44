// Package pkg provides the core libraries of the infograph editor.
//
// # Overview
//
// An infograph is a document of ordered pages sharing one widget table.
// Every page keeps two orders of its widgets: the layer (paint) order of
// its top-level widgets and an accessible reading-order tree. Structural
// edits must keep both in agreement, and persisted widgets are brought to
// the current schema version on load. The pkg directory is organized into
// four main areas:
//
//  1. Model - [widget], [tree], [document]
//  2. Editing - [engine], [migrate], [navigate]
//  3. Sessions - [docstore], [history], [api]
//  4. Infrastructure - [records], [storage], [cache], [render], [observability]
//
// # Architecture
//
// The typical data flow through infograph:
//
//	Stored records (file, Redis, MongoDB)
//	         ↓
//	    [records] package (assemble a Document)
//	         ↓
//	    [migrate] package (upgrade widget schemas, cached by [cache])
//	         ↓
//	    [docstore] package (dispatch [engine] commands, undo via [history])
//	         ↓
//	    Saved records, reading order, DOT/SVG diagrams
//
// # Quick Start
//
// Open a stored document, group two widgets and save it:
//
//	repo, _ := storage.Open(ctx, storage.Options{Dir: "docs"})
//	loader := docstore.NewLoader(repo, nil, nil, nil, logger)
//
//	store, _ := loader.Open(ctx, "quarterly", docstore.WithHistory(history.NewMemory(0)))
//	store.Dispatch(ctx, engine.GroupWidgets{PageID: "p1", Selection: []widget.ID{"a", "b"}})
//	loader.Save(ctx, store.Document())
//
// # Main Packages
//
// ## Model
//
// [widget] - Widget records as JSON objects with typed accessors for kind,
// schema version, composite members and responsive slots.
//
// [tree] - Persistent reading-order trees: insert, remove, replace and
// flatten leaves without mutating shared nodes.
//
// [document] - Documents, pages, the derived parent index and the
// structural invariant checker.
//
// ## Editing
//
// [engine] - Serializable commands (add, remove, replace, group, ungroup,
// duplicate page and more) applied as pure functions of a document.
//
// [migrate] - Per-kind chains of schema upgrade steps, validated at
// construction.
//
// [navigate] - Tab and Shift-Tab traversal of selectable widgets.
//
// ## Sessions
//
// [docstore] - A single-writer store holding the open document, its
// selection and undo history; the loader reads, migrates and validates
// stored documents.
//
// [history] - Tree-shaped undo history in memory or SQLite.
//
// [api] - The editing API over HTTP.
//
// ## Infrastructure
//
// [records] - The path-keyed record format documents are stored in.
//
// [storage] - Record repositories backed by files, Redis or MongoDB.
//
// [cache] - Migration and render caching with file, Redis and null
// backends.
//
// [render] - Reading-order trees as Graphviz DOT, SVG, PDF and PNG.
//
// [observability] - Hooks for commands, migrations, storage and cache
// events.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/engine/...             # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [widget]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/widget
// [tree]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/tree
// [document]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/document
// [engine]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/engine
// [migrate]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/migrate
// [navigate]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/navigate
// [docstore]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/docstore
// [history]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/history
// [api]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/api
// [records]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/records
// [storage]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/storage
// [cache]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/cache
// [render]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/render
// [observability]: https://pkg.go.dev/github.com/devtoc/infograph/pkg/observability
package pkg
