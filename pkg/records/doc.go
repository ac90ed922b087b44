// Package records converts infograph documents to and from their persisted
// form: path-keyed JSON records.
//
// # Record Paths
//
// A document is stored as one record per row:
//
//   - infographs/{docId}: the header (title, page size, language, swatch,
//     pageOrder)
//   - infographs/{docId}/pages/{pageId}: a page (background,
//     widgetLayerOrder, widgetStructureTree)
//   - infographs/{docId}/widgets/{widgetId}: one widget's data
//
// Each record carries an "id" that must match the last path segment and a
// "data" object. [Assemble] rejects the whole set when any record is
// malformed, so a broken row never yields a half-built document.
//
// # Files
//
// [ReadJSON] and [WriteJSON] use a single JSON object keyed by path:
//
//	recs, err := records.ImportFile("report.json")
//	if err != nil {
//	    return err
//	}
//	doc, err := records.Assemble(recs)
//
// Assembled documents still carry the widget schema versions they were
// saved with; run them through the migrator before editing.
package records
