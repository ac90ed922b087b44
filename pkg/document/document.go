package document

import (
	"maps"
	"slices"

	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// PageID identifies a page within a document.
type PageID string

// Size is the page size shared by every page of a document.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page holds the paint order and the reading order of one page.
type Page struct {
	ID         PageID         `json:"id"`
	Background map[string]any `json:"background,omitempty"`

	// LayerOrder is the paint/z order of the page's top-level widgets.
	// Members of groups and responsive composites never appear here.
	LayerOrder []widget.ID `json:"widgetLayerOrder"`

	// Tree is the accessible reading order of the page.
	Tree tree.Node `json:"widgetStructureTree"`
}

// NewPage returns an empty page with an empty reading-order tree.
func NewPage(id PageID) *Page {
	return &Page{ID: id, LayerOrder: []widget.ID{}, Tree: tree.Empty()}
}

// Clone returns a copy of p that can be modified independently.
// Trees are persistent values, so the tree itself is shared.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Background = maps.Clone(p.Background)
	out.LayerOrder = slices.Clone(p.LayerOrder)
	if out.LayerOrder == nil {
		out.LayerOrder = []widget.ID{}
	}
	return &out
}

// LayerIndex returns the z-order index of id, or -1 when id is not a
// top-level widget of the page.
func (p *Page) LayerIndex(id widget.ID) int {
	return slices.Index(p.LayerOrder, id)
}

// Document is an infograph: an ordered set of pages sharing one widget table.
//
// The zero value is not usable - use New. A Document is not safe for
// concurrent mutation; the engine never mutates a Document it is given and
// instead returns a modified copy.
type Document struct {
	ID       string                    `json:"id"`
	Title    string                    `json:"title"`
	PageSize Size                      `json:"pageSize"`
	Language string                    `json:"language"`
	Swatch   []string                  `json:"swatch"`
	Order    []PageID                  `json:"pageOrder"`
	Pages    map[PageID]*Page          `json:"pages"`
	Widgets  map[widget.ID]widget.Data `json:"widgets"`
}

// New creates an empty document.
func New(id, title string) *Document {
	return &Document{
		ID:      id,
		Title:   title,
		Swatch:  []string{},
		Order:   []PageID{},
		Pages:   make(map[PageID]*Page),
		Widgets: make(map[widget.ID]widget.Data),
	}
}

// ShallowClone copies the document header, page order and the page and
// widget maps. Pages and widget records are shared with d; callers replace
// the entries they change (see [Document.EditPage]) rather than modifying
// them in place.
func (d *Document) ShallowClone() *Document {
	out := *d
	out.Swatch = slices.Clone(d.Swatch)
	out.Order = slices.Clone(d.Order)
	out.Pages = maps.Clone(d.Pages)
	out.Widgets = maps.Clone(d.Widgets)
	if out.Pages == nil {
		out.Pages = make(map[PageID]*Page)
	}
	if out.Widgets == nil {
		out.Widgets = make(map[widget.ID]widget.Data)
	}
	return &out
}

// DeepClone returns a fully independent copy, including every widget record.
func (d *Document) DeepClone() *Document {
	out := d.ShallowClone()
	for id, p := range out.Pages {
		out.Pages[id] = p.Clone()
	}
	for id, w := range out.Widgets {
		out.Widgets[id] = w.Clone()
	}
	return out
}

// EditPage replaces page id with a private copy and returns it. It must only
// be called on a document obtained from ShallowClone or DeepClone.
func (d *Document) EditPage(id PageID) (*Page, bool) {
	p, ok := d.Pages[id]
	if !ok {
		return nil, false
	}
	cp := p.Clone()
	d.Pages[id] = cp
	return cp, true
}

// Page returns the page with the given id.
func (d *Document) Page(id PageID) (*Page, bool) {
	p, ok := d.Pages[id]
	return p, ok
}

// Widget returns the widget record with the given id.
func (d *Document) Widget(id widget.ID) (widget.Data, bool) {
	w, ok := d.Widgets[id]
	return w, ok
}

// PageOf returns the page whose layer order or reading-order tree holds id.
// Members of responsive composites are located through their composite.
func (d *Document) PageOf(id widget.ID) (PageID, bool) {
	target := id
	if parent, ok := BuildParentIndex(d).Root(id); ok {
		target = parent
	}
	for _, pid := range d.Order {
		p := d.Pages[pid]
		if p == nil {
			continue
		}
		if p.LayerIndex(target) >= 0 || tree.Contains(p.Tree, target) {
			return pid, true
		}
	}
	return "", false
}

// PageWidgets returns every widget id that belongs to page id: the
// top-level widgets plus, recursively, the members of composites.
func (d *Document) PageWidgets(id PageID) []widget.ID {
	p, ok := d.Pages[id]
	if !ok {
		return nil
	}
	var out []widget.ID
	seen := map[widget.ID]bool{}
	var visit func(widget.ID)
	visit = func(wid widget.ID) {
		if seen[wid] {
			return
		}
		seen[wid] = true
		out = append(out, wid)
		if w, ok := d.Widgets[wid]; ok {
			for _, m := range w.MemberIDs() {
				visit(m)
			}
		}
	}
	for _, wid := range p.LayerOrder {
		visit(wid)
	}
	for wid := range tree.Leaves(p.Tree) {
		visit(wid)
	}
	return out
}

// AddColor adds a color to the document swatch, keeping it a set.
func (d *Document) AddColor(color string) {
	if !slices.Contains(d.Swatch, color) {
		d.Swatch = append(d.Swatch, color)
	}
}
