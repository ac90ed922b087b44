// Package widget defines the schema-versioned widget records that make up an
// infograph document.
//
// # Data
//
// A widget is stored as [Data], a JSON object whose shape depends on its
// [Kind] and schema version. Common fields are "type", "version", the frame
// ("x", "y", "width", "height") and the "isLocked"/"isHidden" flags.
// Composite kinds add structure:
//
//   - [KindGroup]: "memberWidgetIds", the ordered member list
//   - [KindResponsiveText]: "memberWidgetIds" plus "componentWidgetIdMap",
//     which addresses members by named slot
//
// # Identifiers
//
// [NewID] generates kind-prefixed ids ("chart-<uuid>"). [DerivedID] produces
// deterministic ids for widgets synthesized from a parent, so repeated
// migrations of the same document agree on the ids they create.
//
// # Updates
//
// [Merge] implements the partial-update semantics used by the editor:
// objects merge key by key to any depth while arrays and scalars are
// replaced wholesale.
package widget
