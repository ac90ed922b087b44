package document

import (
	"maps"
	"slices"

	"github.com/devtoc/infograph/pkg/widget"
)

// Parent locates a member widget inside its composite.
type Parent struct {
	ID    widget.ID // Owning group or responsive composite
	Index int       // Position within the owner's memberWidgetIds

	// IsResponsiveBase is set when the owner is a responsive composite,
	// whose members are addressed by slot and own no reading-order leaf.
	IsResponsiveBase bool
}

// ParentIndex maps member widget ids to their owning composite.
//
// The index is derived data: [BuildParentIndex] computes it from the
// memberWidgetIds of a document's composites, so it cannot drift from the
// document it was built from. Holders that cache an index next to a
// document must rebuild it whenever the document changes.
type ParentIndex struct {
	entries map[widget.ID]Parent
}

// NewParentIndex returns an empty index.
func NewParentIndex() *ParentIndex {
	return &ParentIndex{entries: make(map[widget.ID]Parent)}
}

// BuildParentIndex computes the parent index of d.
func BuildParentIndex(d *Document) *ParentIndex {
	x := NewParentIndex()
	for _, id := range slices.Sorted(maps.Keys(d.Widgets)) {
		w := d.Widgets[id]
		if !w.Kind().IsComposite() {
			continue
		}
		responsive := w.Kind().IsResponsive()
		for i, m := range w.MemberIDs() {
			x.Add(m, id, i, responsive)
		}
	}
	return x
}

// Add records that child sits at index inside parent.
func (x *ParentIndex) Add(child, parent widget.ID, index int, isResponsiveBase bool) {
	x.entries[child] = Parent{ID: parent, Index: index, IsResponsiveBase: isResponsiveBase}
}

// Remove forgets child.
func (x *ParentIndex) Remove(child widget.ID) {
	delete(x.entries, child)
}

// Get returns the parent record of child.
func (x *ParentIndex) Get(child widget.ID) (Parent, bool) {
	p, ok := x.entries[child]
	return p, ok
}

// ParentID returns the id of child's immediate owner.
func (x *ParentIndex) ParentID(child widget.ID) (widget.ID, bool) {
	p, ok := x.entries[child]
	return p.ID, ok
}

// ParentIDNested returns the owner of child, looking through one extra
// level of nesting: for a text inside a responsive composite that itself
// sits in a group, it returns the group.
func (x *ParentIndex) ParentIDNested(child widget.ID) (widget.ID, bool) {
	p, ok := x.entries[child]
	if !ok {
		return "", false
	}
	if gp, ok := x.entries[p.ID]; ok {
		return gp.ID, true
	}
	return p.ID, true
}

// Root returns the top-level ancestor of child. The second result is false
// when child has no owner.
func (x *ParentIndex) Root(child widget.ID) (widget.ID, bool) {
	cur, ok := x.entries[child]
	if !ok {
		return "", false
	}
	seen := map[widget.ID]bool{child: true}
	for !seen[cur.ID] {
		seen[cur.ID] = true
		next, ok := x.entries[cur.ID]
		if !ok {
			break
		}
		cur = next
	}
	return cur.ID, true
}

// Len returns the number of indexed members.
func (x *ParentIndex) Len() int { return len(x.entries) }

// Equal reports whether both indexes hold the same entries.
func (x *ParentIndex) Equal(other *ParentIndex) bool {
	return maps.Equal(x.entries, other.entries)
}
