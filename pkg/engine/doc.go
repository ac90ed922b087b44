// Package engine implements the structural edits of an infograph document.
//
// Each operation takes a [document.Document] and a command value and
// returns a new document; the input is never modified, so callers can keep
// earlier documents as undo snapshots. The engine keeps the widget table,
// the layer order and the reading-order tree of a page consistent with one
// another (see [document.Check]) for every command it accepts.
//
// # Commands
//
// Commands are plain structs that implement [Command]:
//
//   - [AddWidget], [RemoveWidget], [ReplaceWidget], [UpdateWidget]
//   - [GroupWidgets], [UngroupWidget]
//   - [DuplicatePage], [AddPage], [RemovePage], [MovePage]
//   - [SetStructureTree], [MoveWidgetInLayer], [UpdateDocument]
//
// [Engine.Apply] dispatches any of them. [MarshalCommand] and
// [UnmarshalCommand] encode commands as {"type": ..., "payload": ...}
// envelopes for history storage and the HTTP API.
//
// # Rejected Commands
//
// A command naming an unknown page or widget is not an error: the engine
// logs a warning and returns the input document with Result.Changed unset.
// Stale ids are common in an interactive editor and must not break the
// session.
package engine
