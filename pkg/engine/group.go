package engine

import (
	"slices"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/widget"
)

// GroupWidgets wraps the selected top-level widgets in a new plain group.
//
// A selected plain group contributes its members instead of itself and its
// record is deleted. Responsive composites join as a whole. Members are
// stable-sorted by their layer index, so the group's member order matches
// the paint order the user saw; members of a dissolved group share that
// group's index and keep their own order. The group takes the layer slot of
// the topmost selected widget, shifted down by the selected slots vacated
// below it. The reading-order tree is not touched: plain groups own no leaf
// and every member keeps the leaf it had.
func (e *Engine) GroupWidgets(d *document.Document, c GroupWidgets) (*document.Document, Result) {
	const op = "groupWidgets"
	page, ok := d.Page(c.PageID)
	if !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	if len(c.Selection) == 0 {
		return e.reject(d, op, "empty selection", "page", c.PageID)
	}
	if c.GroupID != "" {
		if _, exists := d.Widgets[c.GroupID]; exists {
			return e.reject(d, op, "group id already in use", "group", c.GroupID)
		}
	}

	type entry struct {
		id    widget.ID
		layer int
	}
	var (
		entries   []entry
		dissolved []widget.ID
		selected  = map[widget.ID]bool{}
		topmost   = -1
	)
	for _, id := range c.Selection {
		if selected[id] {
			continue
		}
		idx := page.LayerIndex(id)
		w, ok := d.Widgets[id]
		if idx < 0 || !ok {
			return e.reject(d, op, "selection is not a top-level widget of the page", "page", c.PageID, "widget", id)
		}
		selected[id] = true
		topmost = max(topmost, idx)
		if w.Kind() == widget.KindGroup {
			for _, m := range w.MemberIDs() {
				entries = append(entries, entry{m, idx})
			}
			dissolved = append(dissolved, id)
			continue
		}
		entries = append(entries, entry{id, idx})
	}
	slices.SortStableFunc(entries, func(a, b entry) int { return a.layer - b.layer })

	gid := c.GroupID
	if gid == "" {
		gid = e.newID(widget.KindGroup)
	}
	members := make([]widget.ID, len(entries))
	frames := make([]widget.Data, len(entries))
	for i, en := range entries {
		members[i] = en.id
		frames[i] = d.Widgets[en.id]
	}
	x, y, wd, ht := widget.Bounds(frames...)
	group := widget.Data{
		widget.FieldType:    string(widget.KindGroup),
		widget.FieldVersion: e.latest(widget.KindGroup),
		widget.FieldX:       x,
		widget.FieldY:       y,
		widget.FieldWidth:   wd,
		widget.FieldHeight:  ht,
	}
	group.SetMemberIDs(members)

	out := d.ShallowClone()
	p, _ := out.EditPage(c.PageID)
	vacated := len(selected) - 1
	p.LayerOrder = slices.DeleteFunc(p.LayerOrder, func(id widget.ID) bool { return selected[id] })
	p.LayerOrder = slices.Insert(p.LayerOrder, topmost-vacated, gid)

	for _, id := range dissolved {
		delete(out.Widgets, id)
	}
	out.Widgets[gid] = group

	return out, Result{Changed: true, Page: c.PageID, Created: []widget.ID{gid}, Removed: dissolved}
}

// UngroupWidget dissolves a top-level plain group: its members return to
// the layer order, in member order, at the group's former position and the
// group record is deleted. The reading-order tree is not touched.
func (e *Engine) UngroupWidget(d *document.Document, c UngroupWidget) (*document.Document, Result) {
	const op = "ungroupWidget"
	page, ok := d.Page(c.PageID)
	if !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	g, ok := d.Widget(c.GroupID)
	if !ok {
		return e.reject(d, op, "unknown group", "page", c.PageID, "group", c.GroupID)
	}
	if g.Kind() != widget.KindGroup {
		return e.reject(d, op, "widget is not a plain group", "group", c.GroupID, "type", g.Kind())
	}
	idx := page.LayerIndex(c.GroupID)
	if idx < 0 {
		return e.reject(d, op, "group is not top-level on the page", "page", c.PageID, "group", c.GroupID)
	}

	out := d.ShallowClone()
	p, _ := out.EditPage(c.PageID)
	p.LayerOrder = slices.Replace(p.LayerOrder, idx, idx+1, g.MemberIDs()...)
	delete(out.Widgets, c.GroupID)

	return out, Result{Changed: true, Page: c.PageID, Removed: []widget.ID{c.GroupID}}
}
