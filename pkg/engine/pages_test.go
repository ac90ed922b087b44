package engine

import (
	"slices"
	"testing"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

func richPage(t *testing.T, e *Engine) *document.Document {
	t.Helper()
	d := add(t, e, emptyDoc(), "t", text(0, 0), "")
	d, _ = e.AddWidget(d, AddWidget{PageID: "p1", Widget: NewWidget{
		ID:   "g",
		Data: widget.Data{"type": "group"},
		Members: []NewWidget{
			{ID: "s", Data: widget.Data{"type": "shape"}},
			{ID: "r", Data: widget.Data{"type": "responsiveText"}, Members: []NewWidget{
				{ID: "l", Data: text(0, 0), Slot: "label"},
				{ID: "b", Data: text(0, 0), Slot: "body"},
			}},
		},
	}})
	d.Pages["p1"].Background = map[string]any{"color": "#fff"}
	consistent(t, d)
	return d
}

func TestDuplicatePage(t *testing.T) {
	e := testEngine()
	d := richPage(t, e)
	d, _ = e.AddPage(d, AddPage{PageID: "p2"})

	out, res := e.DuplicatePage(d, DuplicatePage{PageID: "p1", NewPageID: "copy"})
	if !res.Changed {
		t.Fatal("DuplicatePage rejected")
	}
	if !slices.Equal(out.Order, []document.PageID{"p1", "copy", "p2"}) {
		t.Errorf("page order = %v", out.Order)
	}
	if len(res.Created) != 6 || len(out.Widgets) != 12 {
		t.Fatalf("created %d widgets, table has %d", len(res.Created), len(out.Widgets))
	}

	src, cp := out.Pages["p1"], out.Pages["copy"]
	if len(cp.LayerOrder) != 2 {
		t.Fatalf("copy layer = %v", cp.LayerOrder)
	}
	for _, id := range out.PageWidgets("copy") {
		if slices.Contains(out.PageWidgets("p1"), id) {
			t.Errorf("widget %s shared between pages", id)
		}
	}

	newGroup := out.Widgets[cp.LayerOrder[1]]
	members := newGroup.MemberIDs()
	if len(members) != 2 || out.Widgets[members[0]].Kind() != widget.KindShape {
		t.Fatalf("copied group members = %v", members)
	}
	newResp := out.Widgets[members[1]]
	slots := newResp.Components()
	if out.Widgets[slots["label"]] == nil || slots["label"] == "l" || slots["body"] == "b" {
		t.Errorf("copied slots = %v", slots)
	}
	if !slices.Equal(newResp.MemberIDs(), []widget.ID{slots["label"], slots["body"]}) {
		t.Errorf("copied member order = %v, slots %v", newResp.MemberIDs(), slots)
	}
	if got, want := tree.Flatten(cp.Tree), []widget.ID{cp.LayerOrder[0], members[0], members[1]}; !slices.Equal(got, want) {
		t.Errorf("copy reading order = %v, want %v", got, want)
	}

	cp.Background["color"] = "#000"
	if src.Background["color"] != "#fff" {
		t.Error("background shared with the source page")
	}
	consistent(t, out)
}

func TestDuplicatePageUnknown(t *testing.T) {
	e := testEngine()
	d := emptyDoc()
	if out, res := e.DuplicatePage(d, DuplicatePage{PageID: "x"}); res.Changed || out != d {
		t.Error("DuplicatePage(unknown) changed the document")
	}
	if out, res := e.DuplicatePage(d, DuplicatePage{PageID: "p1", NewPageID: "p1"}); res.Changed || out != d {
		t.Error("DuplicatePage onto an existing id changed the document")
	}
}

func TestSetStructureTree(t *testing.T) {
	e := testEngine()
	d := add(t, e, emptyDoc(), "a", text(0, 0), "")
	d = add(t, e, d, "b", text(0, 0), "")

	nested := tree.Branch("div", nil, tree.Branch("section", map[string]any{"aria-label": "intro"}, tree.Leaf("b")), tree.Leaf("a"))
	out, res := e.SetStructureTree(d, SetStructureTree{PageID: "p1", Tree: nested})
	if !res.Changed {
		t.Fatal("SetStructureTree rejected a reorder")
	}
	wantIDs(t, "reading order", reading(out), "b", "a")
	consistent(t, out)

	for name, bad := range map[string]tree.Node{
		"missing leaf": tree.Branch("div", nil, tree.Leaf("a")),
		"unknown leaf": tree.Branch("div", nil, tree.Leaf("a"), tree.Leaf("b"), tree.Leaf("x")),
		"leaf as root": tree.Leaf("a"),
		"duplicate":    tree.Branch("div", nil, tree.Leaf("a"), tree.Leaf("a")),
	} {
		if got, res := e.SetStructureTree(d, SetStructureTree{PageID: "p1", Tree: bad}); res.Changed || got != d {
			t.Errorf("%s: SetStructureTree accepted an invalid tree", name)
		}
	}
}

func TestPageCommands(t *testing.T) {
	e := testEngine()
	d := richPage(t, e)

	d, res := e.AddPage(d, AddPage{PageID: "p0", After: "missing"})
	if !res.Changed || !slices.Equal(d.Order, []document.PageID{"p1", "p0"}) {
		t.Fatalf("AddPage: order = %v", d.Order)
	}
	d, _ = e.AddPage(d, AddPage{PageID: "pa", After: "p1"})
	if !slices.Equal(d.Order, []document.PageID{"p1", "pa", "p0"}) {
		t.Fatalf("AddPage after p1: order = %v", d.Order)
	}
	if _, res := e.AddPage(d, AddPage{PageID: "p1"}); res.Changed {
		t.Error("AddPage accepted a duplicate id")
	}

	d, _ = e.MovePage(d, MovePage{PageID: "p1", ToIndex: 99})
	if !slices.Equal(d.Order, []document.PageID{"pa", "p0", "p1"}) {
		t.Errorf("MovePage: order = %v", d.Order)
	}
	d, _ = e.MovePage(d, MovePage{PageID: "p0", ToIndex: -3})
	if !slices.Equal(d.Order, []document.PageID{"p0", "pa", "p1"}) {
		t.Errorf("MovePage clamp: order = %v", d.Order)
	}

	d, res = e.RemovePage(d, RemovePage{PageID: "p1"})
	if len(d.Widgets) != 0 || len(res.Removed) != 6 {
		t.Errorf("RemovePage left %v, removed %v", d.Widgets, res.Removed)
	}
	if _, ok := d.Pages["p1"]; ok || slices.Contains(d.Order, "p1") {
		t.Error("page p1 still present")
	}
	consistent(t, d)
}

func TestMoveWidgetInLayer(t *testing.T) {
	e := testEngine()
	d := emptyDoc()
	for _, id := range []widget.ID{"a", "b", "c"} {
		d = add(t, e, d, id, text(0, 0), "")
	}

	out, _ := e.MoveWidgetInLayer(d, MoveWidgetInLayer{PageID: "p1", WidgetID: "a", ToIndex: 2})
	wantIDs(t, "layer", layer(out), "b", "c", "a")
	wantIDs(t, "reading order", reading(out), "a", "b", "c")
	wantIDs(t, "input layer", layer(d), "a", "b", "c")

	if got, res := e.MoveWidgetInLayer(d, MoveWidgetInLayer{PageID: "zz", WidgetID: "a"}); res.Changed || got != d {
		t.Error("MoveWidgetInLayer on a missing page changed the document")
	}
	if got, res := e.MoveWidgetInLayer(d, MoveWidgetInLayer{PageID: "p1", WidgetID: "zz"}); res.Changed || got != d {
		t.Error("MoveWidgetInLayer on a missing widget changed the document")
	}
}

func TestUpdateDocument(t *testing.T) {
	e := testEngine()
	d := emptyDoc()
	title := "Annual report"

	out, res := e.UpdateDocument(d, UpdateDocument{Title: &title, Swatch: []string{"#f00", "#0f0", "#f00"}})
	if !res.Changed {
		t.Fatal("UpdateDocument reported no change")
	}
	if out.Title != title || !slices.Equal(out.Swatch, []string{"#f00", "#0f0"}) {
		t.Errorf("document = %q %v", out.Title, out.Swatch)
	}
	if d.Title != "Test" {
		t.Error("input document modified")
	}
	if _, res := e.UpdateDocument(out, UpdateDocument{Title: &title}); res.Changed {
		t.Error("no-op update reported a change")
	}
}
