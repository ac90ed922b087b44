// Package docstore orchestrates editing sessions on infograph documents.
//
// # Overview
//
// A [Store] holds one open document and is its single writer. Every
// structural edit goes through [Store.Dispatch], which applies an engine
// command, rebuilds the parent-lookup index, records an undo snapshot and
// notifies the [Emitter]. The store also owns the widget selection and
// moves it with [Store.Next] and [Store.Previous].
//
// A [Loader] connects a store to persistent storage:
//
//	repo, _ := storage.Open(ctx, storage.Options{Dir: "docs"})
//	loader := docstore.NewLoader(repo, nil, fileCache, nil, logger)
//	store, err := loader.Open(ctx, "quarterly",
//	    docstore.WithHistory(history.NewMemory(0)))
//
//	res, err := store.Dispatch(ctx, engine.GroupWidgets{PageID: "p1", Selection: ids})
//	err = loader.Save(ctx, store.Document())
//
// # Loading
//
// Records are assembled into a document, every widget is upgraded to the
// current schema, and the result is checked against the document
// invariants before a store sees it. A record set that fails any of these
// steps is rejected as a whole.
//
// # Events
//
// The store emits [EventChanged] after each effective command,
// [EventRestored] after undo and redo, and [EventSelection] when the
// selection moves. Events are emitted while the store lock is held;
// emitters must not call back into the store.
package docstore
