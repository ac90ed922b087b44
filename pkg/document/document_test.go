package document

import (
	"slices"
	"testing"

	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// fixture builds a page with a text, a plain group of two shapes and a
// responsive composite with one member.
func fixture() *Document {
	d := New("doc1", "Quarterly")
	p := NewPage("p1")
	d.Order = append(d.Order, "p1")
	d.Pages["p1"] = p

	d.Widgets["t1"] = widget.Data{"type": "text", "version": 3}
	d.Widgets["s1"] = widget.Data{"type": "shape", "version": 2}
	d.Widgets["s2"] = widget.Data{"type": "shape", "version": 2}
	d.Widgets["g1"] = widget.Data{"type": "group", "version": 2, "memberWidgetIds": []any{"s1", "s2"}}
	d.Widgets["l1"] = widget.Data{"type": "text", "version": 3}
	d.Widgets["r1"] = widget.Data{
		"type":                 "responsiveText",
		"version":              3,
		"memberWidgetIds":      []any{"l1"},
		"componentWidgetIdMap": map[string]any{"label": "l1"},
	}

	p.LayerOrder = []widget.ID{"t1", "g1", "r1"}
	p.Tree = tree.Branch("div", nil, tree.Leaf("t1"), tree.Leaf("s1"), tree.Leaf("s2"), tree.Leaf("r1"))
	return d
}

func TestCheckConsistent(t *testing.T) {
	if vs := Check(fixture()); len(vs) != 0 {
		t.Fatalf("Check() = %v, want no violations", vs)
	}
	if err := Validate(fixture()); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestCheckViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Document)
		rule   Rule
	}{
		{
			name:   "unknown layer id",
			mutate: func(d *Document) { d.Pages["p1"].LayerOrder = append(d.Pages["p1"].LayerOrder, "ghost") },
			rule:   RuleLayerOrder,
		},
		{
			name:   "member in layer order",
			mutate: func(d *Document) { d.Pages["p1"].LayerOrder = append(d.Pages["p1"].LayerOrder, "s1") },
			rule:   RuleLayerOrder,
		},
		{
			name:   "plain group with own leaf",
			mutate: func(d *Document) { d.Pages["p1"].Tree = tree.InsertLeaf(d.Pages["p1"].Tree, "g1", "") },
			rule:   RuleTree,
		},
		{
			name:   "responsive member with leaf",
			mutate: func(d *Document) { d.Pages["p1"].Tree = tree.InsertLeaf(d.Pages["p1"].Tree, "l1", "r1") },
			rule:   RuleTree,
		},
		{
			name:   "missing leaf",
			mutate: func(d *Document) { d.Pages["p1"].Tree = tree.RemoveLeaf(d.Pages["p1"].Tree, "t1") },
			rule:   RuleTree,
		},
		{
			name: "two parents",
			mutate: func(d *Document) {
				d.Widgets["g2"] = widget.Data{"type": "group", "memberWidgetIds": []any{"s1"}}
			},
			rule: RuleMembership,
		},
		{
			name:   "slot outside members",
			mutate: func(d *Document) { d.Widgets["r1"]["componentWidgetIdMap"] = map[string]any{"label": "t1"} },
			rule:   RuleMembership,
		},
		{
			name:   "page without record",
			mutate: func(d *Document) { d.Order = append(d.Order, "p9") },
			rule:   RulePageOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fixture()
			tt.mutate(d)
			vs := Check(d)
			if !slices.ContainsFunc(vs, func(v Violation) bool { return v.Rule == tt.rule }) {
				t.Errorf("Check() = %v, want a %s violation", vs, tt.rule)
			}
			if Validate(d) == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestBuildParentIndex(t *testing.T) {
	d := fixture()
	x := BuildParentIndex(d)

	if x.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", x.Len())
	}
	p, ok := x.Get("s2")
	if !ok || p.ID != "g1" || p.Index != 1 || p.IsResponsiveBase {
		t.Errorf("Get(s2) = %+v, %v", p, ok)
	}
	p, ok = x.Get("l1")
	if !ok || p.ID != "r1" || !p.IsResponsiveBase {
		t.Errorf("Get(l1) = %+v, %v", p, ok)
	}
	if _, ok := x.ParentID("t1"); ok {
		t.Error("ParentID(t1) reported a parent for a top-level widget")
	}
}

func TestParentIDNested(t *testing.T) {
	d := fixture()
	// Move the responsive composite into the group.
	d.Widgets["g1"] = widget.Data{"type": "group", "memberWidgetIds": []any{"s1", "s2", "r1"}}
	d.Pages["p1"].LayerOrder = []widget.ID{"t1", "g1"}
	x := BuildParentIndex(d)

	if got, _ := x.ParentID("l1"); got != "r1" {
		t.Errorf("ParentID(l1) = %q, want r1", got)
	}
	if got, _ := x.ParentIDNested("l1"); got != "g1" {
		t.Errorf("ParentIDNested(l1) = %q, want g1", got)
	}
	if got, _ := x.ParentIDNested("s1"); got != "g1" {
		t.Errorf("ParentIDNested(s1) = %q, want g1", got)
	}
	if got, _ := x.Root("l1"); got != "g1" {
		t.Errorf("Root(l1) = %q, want g1", got)
	}
	if vs := Check(d); len(vs) != 0 {
		t.Errorf("Check() = %v", vs)
	}
}

func TestParentIndexAddRemove(t *testing.T) {
	x := NewParentIndex()
	x.Add("a", "g", 0, false)
	x.Add("b", "g", 1, false)
	x.Remove("a")
	if _, ok := x.Get("a"); ok {
		t.Error("Get(a) after Remove reported a parent")
	}
	y := NewParentIndex()
	y.Add("b", "g", 1, false)
	if !x.Equal(y) {
		t.Error("Equal() = false for identical indexes")
	}
}

func TestDeepCloneIndependent(t *testing.T) {
	d := fixture()
	c := d.DeepClone()
	c.Widgets["t1"]["text"] = "changed"
	c.Pages["p1"].LayerOrder[0] = "x"
	c.AddColor("#fff")

	if _, ok := d.Widgets["t1"]["text"]; ok {
		t.Error("DeepClone shares widget records")
	}
	if d.Pages["p1"].LayerOrder[0] != "t1" {
		t.Error("DeepClone shares layer order")
	}
	if len(d.Swatch) != 0 {
		t.Error("DeepClone shares swatch")
	}
}

func TestEditPageCopyOnWrite(t *testing.T) {
	d := fixture()
	c := d.ShallowClone()
	p, ok := c.EditPage("p1")
	if !ok {
		t.Fatal("EditPage(p1) not found")
	}
	p.LayerOrder = append(p.LayerOrder[:0], "t1")
	if got := len(d.Pages["p1"].LayerOrder); got != 3 {
		t.Errorf("original layer order len = %d, want 3", got)
	}
	if _, ok := c.EditPage("missing"); ok {
		t.Error("EditPage(missing) = ok")
	}
}

func TestPageOf(t *testing.T) {
	d := fixture()
	q := NewPage("p2")
	q.LayerOrder = []widget.ID{"u1"}
	q.Tree = tree.InsertLeaf(tree.Empty(), "u1", "")
	d.Widgets["u1"] = widget.Data{"type": "image"}
	d.Order = append(d.Order, "p2")
	d.Pages["p2"] = q

	tests := []struct {
		id   widget.ID
		want PageID
		ok   bool
	}{
		{"t1", "p1", true},
		{"s2", "p1", true},
		{"l1", "p1", true},
		{"u1", "p2", true},
		{"nope", "", false},
	}
	for _, tt := range tests {
		got, ok := d.PageOf(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("PageOf(%s) = %q, %v, want %q, %v", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPageWidgets(t *testing.T) {
	got := fixture().PageWidgets("p1")
	slices.Sort(got)
	want := []widget.ID{"g1", "l1", "r1", "s1", "s2", "t1"}
	if !slices.Equal(got, want) {
		t.Errorf("PageWidgets() = %v, want %v", got, want)
	}
}
