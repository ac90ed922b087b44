// Package migrate upgrades persisted widget data to the schema versions
// current code expects.
//
// Every widget kind owns a [Chain] of upgrade steps. A step tagged with
// version N upgrades a widget from N-1 to N; version 1 is the implicit
// baseline of data that has no "version" field. [New] refuses a
// configuration where any kind is missing or where a chain does not hold
// exactly one step per version from 2 to its latest, so forgetting a step
// when bumping a version fails at startup rather than on a user's document.
//
// # Usage
//
//	m := migrate.MustNew(migrate.Default())
//	doc, err := m.MigrateDocument(doc)
//
// Migration runs once per load, before the engine sees the document. Steps
// may contribute new widgets; the responsive text label, once an inline
// string, becomes an explicit text member this way. Contributed widget ids
// are derived from their parent so migrating the same data twice yields the
// same document.
package migrate
