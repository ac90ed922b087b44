package document

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// Rule names the structural invariant a [Violation] breaks.
type Rule string

const (
	RulePageOrder  Rule = "page-order"  // pageOrder and pages disagree
	RuleLayerOrder Rule = "layer-order" // layer ids must be known, top-level and unique
	RuleTree       Rule = "tree"        // tree leaves must match the layer order
	RuleMembership Rule = "membership"  // one parent per widget, members must exist
)

// Violation describes one broken invariant.
type Violation struct {
	Rule    Rule
	Page    PageID
	Widget  widget.ID
	Message string
}

func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(string(v.Rule))
	if v.Page != "" {
		fmt.Fprintf(&b, " page=%s", v.Page)
	}
	if v.Widget != "" {
		fmt.Fprintf(&b, " widget=%s", v.Widget)
	}
	b.WriteString(": ")
	b.WriteString(v.Message)
	return b.String()
}

// Check returns every structural invariant d violates, or nil when the
// widget table, the layer orders and the reading-order trees agree.
//
// The rules are:
//   - every layer-order id is a widget and is not a member of a composite
//   - the leaves of each page tree are exactly the page's top-level
//     widgets, with plain groups replaced by their members (responsive
//     composites keep a single leaf and their members own none)
//   - every member id exists and belongs to exactly one composite
func Check(d *Document) []Violation {
	var out []Violation
	add := func(rule Rule, page PageID, id widget.ID, format string, args ...any) {
		out = append(out, Violation{Rule: rule, Page: page, Widget: id, Message: fmt.Sprintf(format, args...)})
	}

	seenPages := map[PageID]bool{}
	for _, pid := range d.Order {
		if seenPages[pid] {
			add(RulePageOrder, pid, "", "page listed twice in pageOrder")
		}
		seenPages[pid] = true
		if _, ok := d.Pages[pid]; !ok {
			add(RulePageOrder, pid, "", "page in pageOrder has no page record")
		}
	}
	for _, pid := range slices.Sorted(maps.Keys(d.Pages)) {
		if !seenPages[pid] {
			add(RulePageOrder, pid, "", "page record missing from pageOrder")
		}
	}

	owners := map[widget.ID][]widget.ID{}
	for _, id := range slices.Sorted(maps.Keys(d.Widgets)) {
		w := d.Widgets[id]
		if !w.Kind().IsComposite() {
			continue
		}
		members := w.MemberIDs()
		for _, m := range members {
			owners[m] = append(owners[m], id)
			if _, ok := d.Widgets[m]; !ok {
				add(RuleMembership, "", id, "member %s does not exist", m)
			}
		}
		for slot, m := range w.Components() {
			if !slices.Contains(members, m) {
				add(RuleMembership, "", id, "slot %q points at non-member %s", slot, m)
			}
		}
	}
	for _, m := range slices.Sorted(maps.Keys(owners)) {
		if len(owners[m]) > 1 {
			add(RuleMembership, "", m, "widget has %d parents: %v", len(owners[m]), owners[m])
		}
	}

	for _, pid := range d.Order {
		p, ok := d.Pages[pid]
		if !ok {
			continue
		}
		seen := map[widget.ID]bool{}
		for _, id := range p.LayerOrder {
			if seen[id] {
				add(RuleLayerOrder, pid, id, "listed twice in layer order")
			}
			seen[id] = true
			if _, ok := d.Widgets[id]; !ok {
				add(RuleLayerOrder, pid, id, "layer order references unknown widget")
			}
			if len(owners[id]) > 0 {
				add(RuleLayerOrder, pid, id, "member of %s must not be in layer order", owners[id][0])
			}
		}

		want := ExpectedLeaves(d, p)
		got := tree.Flatten(p.Tree)
		for _, id := range got {
			if _, ok := d.Widgets[id]; !ok {
				add(RuleTree, pid, id, "tree leaf references unknown widget")
			}
		}
		if missing, extra := diff(want, got); len(missing) > 0 || len(extra) > 0 {
			add(RuleTree, pid, "", "tree leaves differ from layer order: missing %v, unexpected %v", missing, extra)
		}
	}
	return out
}

// ExpectedLeaves returns the multiset of ids the reading-order tree of p must
// contain: top-level widgets, with plain groups expanded into their members.
func ExpectedLeaves(d *Document, p *Page) []widget.ID {
	var out []widget.ID
	for _, id := range p.LayerOrder {
		out = append(out, LeavesOf(d.Widgets, id)...)
	}
	return out
}

// LeavesOf returns the reading-order leaves owned by widget id: its own id,
// or for a plain group the leaves of its members, recursively. Responsive
// composites own a single leaf.
func LeavesOf(widgets map[widget.ID]widget.Data, id widget.ID) []widget.ID {
	var out []widget.ID
	var visit func(id widget.ID, depth int)
	visit = func(id widget.ID, depth int) {
		w, ok := widgets[id]
		if ok && w.Kind() == widget.KindGroup && depth < 8 {
			for _, m := range w.MemberIDs() {
				visit(m, depth+1)
			}
			return
		}
		out = append(out, id)
	}
	visit(id, 0)
	return out
}

// Validate returns an INCONSISTENT_DOCUMENT error listing every violation,
// or nil.
func Validate(d *Document) error {
	vs := Check(d)
	if len(vs) == 0 {
		return nil
	}
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.String()
	}
	return errors.New(errors.ErrCodeInconsistent, "document %s: %s", d.ID, strings.Join(msgs, "; "))
}

func diff(want, got []widget.ID) (missing, extra []widget.ID) {
	counts := map[widget.ID]int{}
	for _, id := range want {
		counts[id]++
	}
	for _, id := range got {
		counts[id]--
	}
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		switch n := counts[id]; {
		case n > 0:
			missing = append(missing, id)
		case n < 0:
			extra = append(extra, id)
		}
	}
	return missing, extra
}
