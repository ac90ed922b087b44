package engine

import (
	"slices"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// DuplicatePage copies a page under a new id, right after the source.
//
// Every widget on the page, including members of composites at any depth,
// is copied under a fresh id. The copied composites list the new member ids
// in the original order, and responsive composites map their original slot
// names to the new members. The reading-order tree is cloned and each leaf
// renamed with tree.ReplaceLeaf.
func (e *Engine) DuplicatePage(d *document.Document, c DuplicatePage) (*document.Document, Result) {
	const op = "duplicatePage"
	src, ok := d.Page(c.PageID)
	if !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	pid := c.NewPageID
	if pid == "" {
		pid = document.PageID(e.newID(pageKind))
	}
	if _, exists := d.Pages[pid]; exists {
		return e.reject(d, op, "page id already in use", "page", pid)
	}

	ids := d.PageWidgets(c.PageID)
	remap := make(map[widget.ID]widget.ID, len(ids))
	for _, id := range ids {
		kind := widget.KindFromID(id)
		if w, ok := d.Widgets[id]; ok {
			kind = w.Kind()
		}
		remap[id] = e.newID(kind)
	}

	out := d.ShallowClone()
	created := make([]widget.ID, 0, len(ids))
	for _, id := range ids {
		w, ok := d.Widgets[id]
		if !ok {
			continue
		}
		cp := w.Clone()
		if members := w.MemberIDs(); members != nil {
			next := make([]widget.ID, len(members))
			for i, m := range members {
				next[i] = mapID(remap, m)
			}
			cp.SetMemberIDs(next)
		}
		if slots := w.Components(); slots != nil {
			next := make(map[string]widget.ID, len(slots))
			for slot, m := range slots {
				next[slot] = mapID(remap, m)
			}
			cp.SetComponents(next)
		}
		out.Widgets[remap[id]] = cp
		created = append(created, remap[id])
	}

	page := src.Clone()
	page.ID = pid
	page.Background = cloneAny(src.Background)
	for i, id := range page.LayerOrder {
		page.LayerOrder[i] = mapID(remap, id)
	}
	t := tree.Clone(src.Tree)
	for _, id := range tree.Flatten(src.Tree) {
		t = tree.ReplaceLeaf(t, id, mapID(remap, id))
	}
	page.Tree = t

	out.Pages[pid] = page
	at := slices.Index(out.Order, c.PageID) + 1
	out.Order = slices.Insert(out.Order, at, pid)

	return out, Result{Changed: true, Page: pid, Created: created}
}

func mapID(remap map[widget.ID]widget.ID, id widget.ID) widget.ID {
	if n, ok := remap[id]; ok {
		return n
	}
	return id
}

func cloneAny(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return widget.Data(m).Clone()
}

// SetStructureTree replaces the reading-order tree of a page. The new tree
// must hold exactly the leaves the page requires; anything else is
// rejected so the reading order cannot lose or invent widgets.
func (e *Engine) SetStructureTree(d *document.Document, c SetStructureTree) (*document.Document, Result) {
	const op = "setStructureTree"
	page, ok := d.Page(c.PageID)
	if !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	if c.Tree.IsLeaf() {
		return e.reject(d, op, "tree root must be a branch", "page", c.PageID)
	}
	want := document.ExpectedLeaves(d, page)
	got := tree.Flatten(c.Tree)
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return e.reject(d, op, "tree leaves do not match the page's widgets", "page", c.PageID, "want", want, "got", got)
	}

	out := d.ShallowClone()
	p, _ := out.EditPage(c.PageID)
	p.Tree = tree.Clone(c.Tree)
	return out, Result{Changed: true, Page: c.PageID}
}

// AddPage inserts an empty page after After, or at the end.
func (e *Engine) AddPage(d *document.Document, c AddPage) (*document.Document, Result) {
	pid := c.PageID
	if pid == "" {
		pid = document.PageID(e.newID(pageKind))
	}
	if _, exists := d.Pages[pid]; exists {
		return e.reject(d, "addPage", "page id already in use", "page", pid)
	}
	out := d.ShallowClone()
	out.Pages[pid] = document.NewPage(pid)
	at := len(out.Order)
	if i := slices.Index(out.Order, c.After); i >= 0 {
		at = i + 1
	}
	out.Order = slices.Insert(out.Order, at, pid)
	return out, Result{Changed: true, Page: pid}
}

// RemovePage deletes a page together with every widget on it.
func (e *Engine) RemovePage(d *document.Document, c RemovePage) (*document.Document, Result) {
	if _, ok := d.Page(c.PageID); !ok {
		return e.reject(d, "removePage", "unknown page", "page", c.PageID)
	}
	removed := d.PageWidgets(c.PageID)
	out := d.ShallowClone()
	for _, id := range removed {
		delete(out.Widgets, id)
	}
	delete(out.Pages, c.PageID)
	out.Order = slices.DeleteFunc(out.Order, func(p document.PageID) bool { return p == c.PageID })
	return out, Result{Changed: true, Page: c.PageID, Removed: removed}
}

// MovePage moves a page within the page order. ToIndex is clamped to the
// valid range.
func (e *Engine) MovePage(d *document.Document, c MovePage) (*document.Document, Result) {
	from := slices.Index(d.Order, c.PageID)
	if from < 0 {
		return e.reject(d, "movePage", "unknown page", "page", c.PageID)
	}
	out := d.ShallowClone()
	out.Order = move(out.Order, from, c.ToIndex)
	return out, Result{Changed: true, Page: c.PageID}
}

// MoveWidgetInLayer changes the paint order of a top-level widget. ToIndex
// is clamped to the valid range; the reading order is left alone.
func (e *Engine) MoveWidgetInLayer(d *document.Document, c MoveWidgetInLayer) (*document.Document, Result) {
	const op = "moveWidgetInLayer"
	page, ok := d.Page(c.PageID)
	if !ok {
		return e.reject(d, op, "unknown page", "page", c.PageID)
	}
	from := page.LayerIndex(c.WidgetID)
	if from < 0 {
		return e.reject(d, op, "widget is not in the layer order", "page", c.PageID, "widget", c.WidgetID)
	}
	out := d.ShallowClone()
	p, _ := out.EditPage(c.PageID)
	p.LayerOrder = move(p.LayerOrder, from, c.ToIndex)
	return out, Result{Changed: true, Page: c.PageID}
}

func move[T any](s []T, from, to int) []T {
	to = min(max(to, 0), len(s)-1)
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}

// UpdateDocument edits the title, language, page size or swatch. The
// swatch is deduplicated, keeping first occurrences.
func (e *Engine) UpdateDocument(d *document.Document, c UpdateDocument) (*document.Document, Result) {
	out := d.ShallowClone()
	if c.Title != nil {
		out.Title = *c.Title
	}
	if c.Language != nil {
		out.Language = *c.Language
	}
	if c.PageSize != nil {
		out.PageSize = *c.PageSize
	}
	if c.Swatch != nil {
		out.Swatch = []string{}
		for _, color := range c.Swatch {
			out.AddColor(color)
		}
	}
	changed := out.Title != d.Title || out.Language != d.Language ||
		out.PageSize != d.PageSize || !slices.Equal(out.Swatch, d.Swatch)
	if !changed {
		return d, Result{}
	}
	return out, Result{Changed: true}
}
