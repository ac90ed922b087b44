package engine

import (
	"slices"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// AddWidget inserts a widget and its nested members.
//
// A top-level widget is placed in the layer order right after
// PositionedNextTo, or on top when that id is empty or not in the layer
// order. Its reading-order leaves go after the anchor's leaf in the root of
// the tree: a single leaf for a plain widget or responsive composite, one
// leaf per member for a plain group. Nested members are registered in the
// widget table only.
//
// With IsGroupMember the widget joins the composite ParentID instead of the
// layer order. Members of a plain group get a leaf after PositionedNextTo
// (or after the group's last leaf); members of a responsive composite get
// none.
func (e *Engine) AddWidget(d *document.Document, c AddWidget) (*document.Document, Result) {
	const op = "addWidget"
	if _, ok := d.Page(c.PageID); !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	if msg := validNew(d, c.Widget); msg != "" {
		return e.reject(d, op, msg, "page", c.PageID)
	}
	var parent widget.Data
	if c.IsGroupMember {
		p, ok := d.Widget(c.ParentID)
		if !ok || !p.Kind().IsComposite() {
			return e.reject(d, op, "unknown parent composite", "page", c.PageID, "parent", c.ParentID)
		}
		if other, ok := onOtherPage(d, c.ParentID, c.PageID); ok {
			return e.reject(d, op, "parent is on another page", "page", c.PageID, "parent", c.ParentID, "on", other)
		}
		parent = p
	}

	out := d.ShallowClone()
	page, _ := out.EditPage(c.PageID)
	id, created := e.register(out, c.Widget)

	var after widget.ID
	switch {
	case !c.IsGroupMember:
		pos := len(page.LayerOrder)
		if i := page.LayerIndex(c.PositionedNextTo); i >= 0 {
			pos = i + 1
		}
		page.LayerOrder = slices.Insert(page.LayerOrder, pos, id)
		after = anchorLeaf(d, c.PositionedNextTo)
	case parent.Kind().IsResponsive():
		setWidget(out, c.ParentID, func(w widget.Data) {
			w.SetMemberIDs(append(w.MemberIDs(), id))
			if c.Widget.Slot != "" {
				slots := w.Components()
				if slots == nil {
					slots = map[string]widget.ID{}
				}
				slots[c.Widget.Slot] = id
				w.SetComponents(slots)
			}
		})
		return out, Result{Changed: true, Page: c.PageID, Created: created}
	default:
		after = c.PositionedNextTo
		if after == "" {
			after = anchorLeaf(d, c.ParentID)
		} else {
			after = anchorLeaf(d, after)
		}
		setWidget(out, c.ParentID, func(w widget.Data) {
			w.SetMemberIDs(append(w.MemberIDs(), id))
		})
	}

	for _, leaf := range document.LeavesOf(out.Widgets, id) {
		page.Tree = tree.InsertLeaf(page.Tree, leaf, after)
		after = leaf
	}
	return out, Result{Changed: true, Page: c.PageID, Created: created}
}

// RemoveWidget deletes a widget record, drops it from the layer order and
// removes its tree leaf wherever it is nested. A member is also dropped from
// its parent's member list and slot map. Members of a removed composite are
// left alone unless Cascade is set, in which case they are removed first,
// depth-first.
func (e *Engine) RemoveWidget(d *document.Document, c RemoveWidget) (*document.Document, Result) {
	const op = "removeWidget"
	if _, ok := d.Page(c.PageID); !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	if _, ok := d.Widget(c.WidgetID); !ok {
		return e.reject(d, op, "unknown widget", "page", c.PageID, "widget", c.WidgetID)
	}
	if other, ok := onOtherPage(d, c.WidgetID, c.PageID); ok {
		return e.reject(d, op, "widget is on another page", "page", c.PageID, "widget", c.WidgetID, "on", other)
	}

	out := d.ShallowClone()
	page, _ := out.EditPage(c.PageID)
	var removed []widget.ID

	var remove func(id widget.ID, depth int)
	remove = func(id widget.ID, depth int) {
		w, ok := out.Widgets[id]
		if !ok {
			return
		}
		if c.Cascade && depth < 16 {
			for _, m := range w.MemberIDs() {
				remove(m, depth+1)
			}
		}
		if parentID, ok := document.BuildParentIndex(out).ParentID(id); ok {
			setWidget(out, parentID, func(p widget.Data) {
				p.SetMemberIDs(slices.DeleteFunc(p.MemberIDs(), func(m widget.ID) bool { return m == id }))
				if slot, ok := p.SlotOf(id); ok {
					slots := p.Components()
					delete(slots, slot)
					p.SetComponents(slots)
				}
			})
		}
		delete(out.Widgets, id)
		page.LayerOrder = slices.DeleteFunc(page.LayerOrder, func(x widget.ID) bool { return x == id })
		page.Tree = tree.RemoveLeaf(page.Tree, id)
		removed = append(removed, id)
	}
	remove(c.WidgetID, 0)

	return out, Result{Changed: true, Page: c.PageID, Removed: removed}
}

// ReplaceWidget puts a new widget in the place of OldID: the same layer
// slot, the same reading-order position and, for a member, the same index
// and slot in its parent. The old record is deleted; its members are not.
func (e *Engine) ReplaceWidget(d *document.Document, c ReplaceWidget) (*document.Document, Result) {
	const op = "replaceWidget"
	if _, ok := d.Page(c.PageID); !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	if _, ok := d.Widget(c.OldID); !ok {
		return e.reject(d, op, "unknown widget", "page", c.PageID, "widget", c.OldID)
	}
	if other, ok := onOtherPage(d, c.OldID, c.PageID); ok {
		return e.reject(d, op, "widget is on another page", "page", c.PageID, "widget", c.OldID, "on", other)
	}
	if msg := validNew(d, c.Widget); msg != "" {
		return e.reject(d, op, msg, "page", c.PageID, "widget", c.OldID)
	}

	parents := document.BuildParentIndex(d)
	oldLeaves := document.LeavesOf(d.Widgets, c.OldID)
	parent, isMember := parents.Get(c.OldID)

	out := d.ShallowClone()
	page, _ := out.EditPage(c.PageID)
	id, created := e.register(out, c.Widget)

	if i := page.LayerIndex(c.OldID); i >= 0 {
		page.LayerOrder[i] = id
	}
	if isMember {
		setWidget(out, parent.ID, func(p widget.Data) {
			members := p.MemberIDs()
			members[parent.Index] = id
			p.SetMemberIDs(members)
			if slot, ok := p.SlotOf(c.OldID); ok {
				slots := p.Components()
				slots[slot] = id
				p.SetComponents(slots)
			}
		})
	}
	delete(out.Widgets, c.OldID)

	if !isMember || !parent.IsResponsiveBase {
		newLeaves := document.LeavesOf(out.Widgets, id)
		switch {
		case len(oldLeaves) > 0 && tree.Contains(page.Tree, oldLeaves[0]):
			page.Tree = tree.SpliceLeaf(page.Tree, oldLeaves[0], newLeaves...)
			for _, l := range oldLeaves[1:] {
				page.Tree = tree.RemoveLeaf(page.Tree, l)
			}
		default:
			var after widget.ID
			if i := page.LayerIndex(id); i > 0 {
				after = anchorLeaf(out, page.LayerOrder[i-1])
			}
			for _, l := range newLeaves {
				page.Tree = tree.InsertLeaf(page.Tree, l, after)
				after = l
			}
		}
	}

	return out, Result{Changed: true, Page: c.PageID, Created: created, Removed: []widget.ID{c.OldID}}
}

// UpdateWidget deep-merges Partial into a widget: nested objects merge key
// by key, arrays and scalars are replaced.
func (e *Engine) UpdateWidget(d *document.Document, c UpdateWidget) (*document.Document, Result) {
	w, ok := d.Widget(c.WidgetID)
	if !ok {
		return e.reject(d, "updateWidget", "unknown widget", "widget", c.WidgetID)
	}
	out := d.ShallowClone()
	out.Widgets[c.WidgetID] = widget.Merge(w, c.Partial)
	res := Result{Changed: true}
	if pid, ok := d.PageOf(c.WidgetID); ok {
		res.Page = pid
	}
	return out, res
}
