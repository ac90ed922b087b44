// Package document defines the in-memory infograph document and its
// structural invariants.
//
// A [Document] holds three structures that are derived from one another and
// must agree after every edit:
//
//   - Widgets: the flat widget table shared by every page
//   - Page.LayerOrder: the paint order of a page's top-level widgets
//   - Page.Tree: the accessible reading order of a page
//
// Members of groups and responsive composites live in the widget table but
// never in a layer order. Plain groups own no reading-order leaf (their
// members keep theirs); a responsive composite owns exactly one leaf and its
// members own none. [Check] reports every place where a document breaks
// these rules.
//
// # Parent Index
//
// [ParentIndex] maps a member widget to its owning composite. It is computed
// from the document by [BuildParentIndex] rather than maintained by hand:
//
//	parents := document.BuildParentIndex(doc)
//	if owner, ok := parents.ParentID(id); ok {
//	    // id is a member of owner
//	}
package document
