// Package navigate computes keyboard navigation between selectable widgets.
//
// Given the current selection, [Next] and [Previous] return the widget that
// Tab and Shift-Tab should select. Navigation stays inside the innermost
// container of the selection: the members of a responsive composite, the
// members of a plain group, or the page's top-level widgets. Every level
// wraps around at its ends.
package navigate

import (
	"slices"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/widget"
)

// Active describes one selected widget and the container it was selected in.
type Active struct {
	ID widget.ID `json:"id"`

	// GroupMembers lists the members of the plain group the widget was
	// selected in, in tab order. Empty for top-level selections.
	GroupMembers []widget.ID `json:"groupMembers,omitempty"`

	// ResponsiveGroupID is the responsive composite the widget belongs to,
	// or the widget's own id when it is a responsive composite itself.
	ResponsiveGroupID widget.ID `json:"responsiveGroupId,omitempty"`
}

// ActiveFor builds the selection descriptor for id from the document
// structure.
func ActiveFor(d *document.Document, parents *document.ParentIndex, id widget.ID) Active {
	a := Active{ID: id}
	if w, ok := d.Widgets[id]; ok && w.Kind().IsResponsive() {
		a.ResponsiveGroupID = id
	}
	p, ok := parents.Get(id)
	if !ok {
		return a
	}
	if p.IsResponsiveBase {
		a.ResponsiveGroupID = p.ID
		return a
	}
	a.GroupMembers = d.Widgets[p.ID].MemberIDs()
	return a
}

// Next returns the widget after the selection. With no selection it is the
// first widget of order; with more than one selected widget navigation is
// undefined and the second result is false.
func Next(sel []Active, order []widget.ID, widgets map[widget.ID]widget.Data, parents *document.ParentIndex) (widget.ID, bool) {
	return step(sel, order, widgets, parents, 1)
}

// Previous returns the widget before the selection. With no selection it is
// the last widget of order.
func Previous(sel []Active, order []widget.ID, widgets map[widget.ID]widget.Data, parents *document.ParentIndex) (widget.ID, bool) {
	return step(sel, order, widgets, parents, -1)
}

func step(sel []Active, order []widget.ID, widgets map[widget.ID]widget.Data, parents *document.ParentIndex, dir int) (widget.ID, bool) {
	switch len(sel) {
	case 0:
		return edge(order, dir)
	case 1:
	default:
		return "", false
	}

	a := sel[0]
	switch {
	case a.ResponsiveGroupID != "" && a.ResponsiveGroupID != a.ID:
		members := widgets[a.ResponsiveGroupID].MemberIDs()
		return visibleNeighbor(a.ID, members, widgets, dir), true

	case len(a.GroupMembers) > 0 && (a.ResponsiveGroupID != a.ID || nested(parents, a.ID)):
		return neighbor(a.ID, a.GroupMembers, dir)
	}

	return neighbor(a.ID, order, dir)
}

func nested(parents *document.ParentIndex, id widget.ID) bool {
	if parents == nil {
		return false
	}
	_, ok := parents.ParentID(id)
	return ok
}

// edge returns the first (dir > 0) or last element of ids.
func edge(ids []widget.ID, dir int) (widget.ID, bool) {
	if len(ids) == 0 {
		return "", false
	}
	if dir > 0 {
		return ids[0], true
	}
	return ids[len(ids)-1], true
}

// neighbor returns the element after (or before) id, wrapping around. An
// id that is not in ids yields the first (or last) element.
func neighbor(id widget.ID, ids []widget.ID, dir int) (widget.ID, bool) {
	i := slices.Index(ids, id)
	if i < 0 {
		return edge(ids, dir)
	}
	n := len(ids)
	return ids[((i+dir)%n+n)%n], true
}

// visibleNeighbor is like neighbor but skips hidden widgets. When every
// other member is hidden it returns id itself.
func visibleNeighbor(id widget.ID, ids []widget.ID, widgets map[widget.ID]widget.Data, dir int) widget.ID {
	i := slices.Index(ids, id)
	if i < 0 {
		return id
	}
	n := len(ids)
	for k := 1; k < n; k++ {
		cand := ids[((i+k*dir)%n+n)%n]
		if !widgets[cand].IsHidden() {
			return cand
		}
	}
	return id
}
