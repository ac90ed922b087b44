package engine

import (
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/widget"
)

func fourWidgets(t *testing.T, e *Engine) *document.Document {
	t.Helper()
	d := emptyDoc()
	d = add(t, e, d, "a", text(0, 0), "")
	d = add(t, e, d, "w1", text(10, 10), "")
	d = add(t, e, d, "w2", text(30, 5), "")
	return add(t, e, d, "c", text(0, 0), "")
}

func TestGroupWidgetsZOrder(t *testing.T) {
	e := testEngine()
	d := fourWidgets(t, e)

	// Selection order does not matter: members follow the layer order.
	out, res := e.GroupWidgets(d, GroupWidgets{PageID: "p1", Selection: []widget.ID{"w2", "w1"}})
	if !res.Changed || len(res.Created) != 1 {
		t.Fatalf("GroupWidgets() = %+v", res)
	}
	gid := res.Created[0]

	wantIDs(t, "members", out.Widgets[gid].MemberIDs(), "w1", "w2")
	wantIDs(t, "layer", layer(out), "a", gid, "c")
	wantIDs(t, "reading order", reading(out), "a", "w1", "w2", "c")

	g := out.Widgets[gid]
	if g.Kind() != widget.KindGroup || g.Version() != 2 {
		t.Errorf("group = %v", g)
	}
	frame := []float64{g.Float("x"), g.Float("y"), g.Float("width"), g.Float("height")}
	if !slices.Equal(frame, []float64{10, 5, 30, 15}) {
		t.Errorf("frame = %v, want [10 5 30 15]", frame)
	}
	consistent(t, out)
}

func TestGroupWidgetsInterleaved(t *testing.T) {
	e := testEngine()
	d := emptyDoc()
	for _, id := range []widget.ID{"a", "w1", "b", "w2", "c"} {
		d = add(t, e, d, id, text(0, 0), "")
	}
	d = group(t, e, d, "g", "w1", "w2")

	wantIDs(t, "layer", layer(d), "a", "b", "g", "c")
	consistent(t, d)
}

func TestGroupDissolvesSelectedGroups(t *testing.T) {
	e := testEngine()
	d := fourWidgets(t, e)
	d = group(t, e, d, "g1", "w1", "w2")

	d, res := e.GroupWidgets(d, GroupWidgets{PageID: "p1", Selection: []widget.ID{"c", "g1", "a"}, GroupID: "g2"})
	if !res.Changed {
		t.Fatal("GroupWidgets rejected")
	}
	wantIDs(t, "members", d.Widgets["g2"].MemberIDs(), "a", "w1", "w2", "c")
	wantIDs(t, "removed", res.Removed, "g1")
	wantIDs(t, "layer", layer(d), "g2")
	if _, ok := d.Widgets["g1"]; ok {
		t.Error("dissolved group record kept")
	}
	consistent(t, d)
}

func TestGroupKeepsResponsiveComposite(t *testing.T) {
	e := testEngine()
	d, _ := e.AddWidget(emptyDoc(), AddWidget{PageID: "p1", Widget: NewWidget{
		ID: "r", Data: widget.Data{"type": "responsiveText"},
		Members: []NewWidget{{ID: "l", Data: text(0, 0), Slot: "label"}},
	}})
	d = add(t, e, d, "t", text(0, 0), "")
	d = group(t, e, d, "g", "t", "r")

	wantIDs(t, "members", d.Widgets["g"].MemberIDs(), "r", "t")
	wantIDs(t, "reading order", reading(d), "r", "t")
	if got, _ := document.BuildParentIndex(d).ParentIDNested("l"); got != "g" {
		t.Errorf("ParentIDNested(l) = %q, want g", got)
	}
	consistent(t, d)
}

func TestGroupWidgetsRejected(t *testing.T) {
	e := testEngine()
	d := fourWidgets(t, e)
	d = group(t, e, d, "g", "w1", "w2")

	tests := []struct {
		name string
		cmd  GroupWidgets
	}{
		{"unknown page", GroupWidgets{PageID: "p9", Selection: []widget.ID{"a"}}},
		{"empty selection", GroupWidgets{PageID: "p1"}},
		{"member selected", GroupWidgets{PageID: "p1", Selection: []widget.ID{"a", "w1"}}},
		{"unknown widget", GroupWidgets{PageID: "p1", Selection: []widget.ID{"ghost"}}},
		{"group id in use", GroupWidgets{PageID: "p1", Selection: []widget.ID{"a"}, GroupID: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out, res := e.GroupWidgets(d, tt.cmd); res.Changed || out != d {
				t.Errorf("GroupWidgets() changed the document: %+v", res)
			}
		})
	}
}

func TestGroupUngroupRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		layer     []widget.ID
		selection []widget.ID
		// wantLayer is the layer order after the round trip.
		wantLayer []widget.ID
	}{
		{
			name:      "adjacent",
			layer:     []widget.ID{"a", "w1", "w2", "b"},
			selection: []widget.ID{"w1", "w2"},
			wantLayer: []widget.ID{"a", "w1", "w2", "b"},
		},
		{
			name:      "reverse selection",
			layer:     []widget.ID{"w1", "w2", "w3"},
			selection: []widget.ID{"w3", "w1", "w2"},
			wantLayer: []widget.ID{"w1", "w2", "w3"},
		},
		{
			name:      "interleaved",
			layer:     []widget.ID{"w1", "a", "w2"},
			selection: []widget.ID{"w1", "w2"},
			wantLayer: []widget.ID{"a", "w1", "w2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine()
			d := emptyDoc()
			for i, id := range tt.layer {
				d = add(t, e, d, id, text(float64(i), 0), "")
			}

			grouped := group(t, e, d, "g", tt.selection...)
			back, res := e.UngroupWidget(grouped, UngroupWidget{PageID: "p1", GroupID: "g"})
			if !res.Changed {
				t.Fatal("UngroupWidget rejected")
			}

			if !reflect.DeepEqual(back.Widgets, d.Widgets) {
				t.Errorf("widgets = %v, want %v", back.Widgets, d.Widgets)
			}
			wantIDs(t, "layer", layer(back), tt.wantLayer...)
			wantIDs(t, "reading order", reading(back), reading(d)...)
			consistent(t, back)

			// Relative z-order of the selection survives in every case.
			var before, after []widget.ID
			for _, id := range layer(d) {
				if slices.Contains(tt.selection, id) {
					before = append(before, id)
				}
			}
			for _, id := range layer(back) {
				if slices.Contains(tt.selection, id) {
					after = append(after, id)
				}
			}
			wantIDs(t, "selection order", after, before...)
		})
	}
}

func TestUngroupRejected(t *testing.T) {
	e := testEngine()
	d, _ := e.AddWidget(emptyDoc(), AddWidget{PageID: "p1", Widget: NewWidget{
		ID: "r", Data: widget.Data{"type": "responsiveText"},
		Members: []NewWidget{{ID: "l", Data: text(0, 0)}},
	}})
	d = add(t, e, d, "t", text(0, 0), "")

	for _, cmd := range []UngroupWidget{
		{PageID: "p1", GroupID: "ghost"},
		{PageID: "p1", GroupID: "r"},
		{PageID: "p1", GroupID: "t"},
		{PageID: "nope", GroupID: "r"},
	} {
		if out, res := e.UngroupWidget(d, cmd); res.Changed || out != d {
			t.Errorf("UngroupWidget(%+v) changed the document", cmd)
		}
	}
	if got := slices.Sorted(maps.Keys(d.Widgets)); len(got) != 3 {
		t.Errorf("widgets = %v", got)
	}
}
