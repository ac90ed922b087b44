package records

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
	"testing"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

func sample() *document.Document {
	d := document.New("d1", "Report")
	d.Language = "en"
	d.PageSize = document.Size{Width: 800, Height: 600}
	d.Swatch = []string{"#000"}
	p := document.NewPage("p1")
	p.Background = map[string]any{"color": "#fff"}
	p.LayerOrder = []widget.ID{"a", "g"}
	p.Tree = tree.Branch("div", nil, tree.Leaf("a"), tree.Branch("section", nil, tree.Leaf("b")))
	d.Order = []document.PageID{"p1"}
	d.Pages["p1"] = p
	d.Widgets["a"] = widget.Data{"type": "text", "version": 3.0, "x": 1.0}
	d.Widgets["b"] = widget.Data{"type": "shape", "version": 2.0}
	d.Widgets["g"] = widget.Data{"type": "group", "version": 2.0, "memberWidgetIds": []any{"b"}}
	return d
}

func TestExportAssembleRoundTrip(t *testing.T) {
	d := sample()
	recs, err := Export(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 5 {
		t.Fatalf("Export() produced %d records, want 5", len(recs))
	}
	if recs[0].Path != "infographs/d1" || recs[1].Path != "infographs/d1/pages/p1" {
		t.Errorf("record order = %s, %s", recs[0].Path, recs[1].Path)
	}

	var buf bytes.Buffer
	if err := WriteJSON(recs, &buf); err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Assemble(back)
	if err != nil {
		t.Fatal(err)
	}

	if got.Title != d.Title || got.Language != d.Language || got.PageSize != d.PageSize {
		t.Errorf("header = %+v", got)
	}
	if !reflect.DeepEqual(got.Widgets, d.Widgets) {
		t.Errorf("widgets = %v, want %v", got.Widgets, d.Widgets)
	}
	p := got.Pages["p1"]
	if !slices.Equal(p.LayerOrder, d.Pages["p1"].LayerOrder) || !tree.Equal(p.Tree, d.Pages["p1"].Tree) {
		t.Errorf("page = %+v", p)
	}
	if p.Background["color"] != "#fff" {
		t.Errorf("background = %v", p.Background)
	}
	if Hash(recs) != Hash(back) {
		t.Error("Hash changed across a JSON round trip")
	}
}

func TestAssembleLegacyFile(t *testing.T) {
	recs, err := ImportFile("testdata/legacy.json")
	if err != nil {
		t.Fatal(err)
	}
	d, err := Assemble(recs)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "report" || len(d.Widgets) != 6 || !slices.Equal(d.Order, []document.PageID{"cover"}) {
		t.Fatalf("document = %s, %d widgets, order %v", d.ID, len(d.Widgets), d.Order)
	}
	if got := tree.Flatten(d.Pages["cover"].Tree); len(got) != 4 {
		t.Errorf("reading order = %v", got)
	}
	if _, ok := d.Widgets["text-kpi-value"]; !ok {
		t.Error("page-nested widget record not loaded")
	}
}

func TestAssembleRejectsMalformed(t *testing.T) {
	data := func(s string) json.RawMessage { return json.RawMessage(s) }
	hdr := Record{Path: "infographs/d1", ID: "d1", Data: data(`{"pageOrder":[]}`)}

	tests := []struct {
		name string
		recs []Record
	}{
		{"missing id", []Record{hdr, {Path: "infographs/d1/widgets/a", Data: data(`{"type":"text"}`)}}},
		{"missing data", []Record{hdr, {Path: "infographs/d1/widgets/a", ID: "a"}}},
		{"null data", []Record{hdr, {Path: "infographs/d1/widgets/a", ID: "a", Data: data(`null`)}}},
		{"id mismatch", []Record{hdr, {Path: "infographs/d1/widgets/a", ID: "b", Data: data(`{}`)}}},
		{"unknown path", []Record{hdr, {Path: "infographs/d1/things/a", ID: "a", Data: data(`{}`)}}},
		{"other root", []Record{{Path: "docs/d1", ID: "d1", Data: data(`{}`)}}},
		{"two documents", []Record{hdr, {Path: "infographs/d2/widgets/a", ID: "a", Data: data(`{}`)}}},
		{"no header", []Record{{Path: "infographs/d1/widgets/a", ID: "a", Data: data(`{}`)}}},
		{"duplicate header", []Record{hdr, hdr}},
		{"missing page", []Record{{Path: "infographs/d1", ID: "d1", Data: data(`{"pageOrder":["p1"]}`)}}},
		{"bad widget json", []Record{hdr, {Path: "infographs/d1/widgets/a", ID: "a", Data: data(`[1]`)}}},
		{"traversal", []Record{{Path: "infographs/../d1", ID: "d1", Data: data(`{}`)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Assemble(tt.recs)
			if err == nil {
				t.Fatalf("Assemble() = %v, want error", d)
			}
			if d != nil {
				t.Error("Assemble returned a partial document")
			}
		})
	}
}

func TestAssembleAppendsUnlistedPages(t *testing.T) {
	recs := []Record{
		{Path: "infographs/d1/pages/p2", ID: "p2", Data: json.RawMessage(`{}`)},
		{Path: "infographs/d1", ID: "d1", Data: json.RawMessage(`{"pageOrder":["p1"]}`)},
		{Path: "infographs/d1/pages/p1", ID: "p1", Data: json.RawMessage(`{}`)},
	}
	d, err := Assemble(recs)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(d.Order, []document.PageID{"p1", "p2"}) {
		t.Errorf("order = %v", d.Order)
	}
	if d.Pages["p2"].Tree.Len() != 0 || d.Pages["p2"].LayerOrder == nil {
		t.Error("empty page record did not yield an empty page")
	}
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString(`["not", "an", "object"]`))
	if !errors.Is(err, errors.ErrCodeInvalidRecord) {
		t.Errorf("ReadJSON() error = %v", err)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		doc  string
		kind Kind
		id   string
	}{
		{"infographs/d1", "d1", KindDocument, "d1"},
		{"infographs/d1/pages/p1", "d1", KindPage, "p1"},
		{"infographs/d1/widgets/w", "d1", KindWidget, "w"},
		{"infographs/d1/pages/p1/widgets/w", "d1", KindWidget, "w"},
	}
	for _, tt := range tests {
		doc, kind, id, err := ParsePath(tt.path)
		if err != nil || doc != tt.doc || kind != tt.kind || id != tt.id {
			t.Errorf("ParsePath(%q) = %q, %v, %q, %v", tt.path, doc, kind, id, err)
		}
	}
}
