package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

func page() *document.Document {
	d := document.New("doc1", "Report")
	p := document.NewPage("p1")
	d.Order = append(d.Order, "p1")
	d.Pages["p1"] = p
	d.Widgets["title"] = widget.Data{"type": "text", "text": "Quarterly results for the northern region"}
	d.Widgets["chart"] = widget.Data{"type": "chart", "isHidden": true}
	p.LayerOrder = []widget.ID{"title", "chart", "ghost"}
	p.Tree = tree.Branch("div", nil,
		tree.Leaf("title"),
		tree.Branch("section", map[string]any{"role": "figure"}, tree.Leaf("chart"), tree.Leaf("ghost")),
	)
	return d
}

func TestToDOT(t *testing.T) {
	dot, err := ToDOT(page(), "p1", Options{Labels: true, Sequence: true})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}

	for _, want := range []string{
		`digraph "p1" {`,
		`label="1. title\ntext\nQuarterly results for t…"`,
		`label="2. chart\nchart"`,
		`fillcolor=gray90`,
		`label="3. ghost", color=red`,
		`label="section\nrole: figure"`,
		"n0 -> n1;",
		"n2 -> n3;",
		"n1 -> n3;",
		"n3 -> n4;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTPlain(t *testing.T) {
	dot, err := ToDOT(page(), "p1", Options{})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if strings.Contains(dot, "style=dashed, color=gray50") {
		t.Error("sequence edges drawn without Options.Sequence")
	}
	if !strings.Contains(dot, `label="1. title"`) {
		t.Errorf("plain leaf label missing:\n%s", dot)
	}
}

func TestToDOTUnknownPage(t *testing.T) {
	_, err := ToDOT(page(), "nope", Options{})
	if !errors.Is(err, errors.ErrCodePageNotFound) {
		t.Errorf("ToDOT error = %v, want PAGE_NOT_FOUND", err)
	}
}

func TestRenderSVG(t *testing.T) {
	dot, err := ToDOT(page(), "p1", Options{Sequence: true})
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	svg, err := Render(context.Background(), dot, FormatSVG)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("SVG viewBox not normalized:\n%s", svg)
	}
}

func TestRenderUnsupported(t *testing.T) {
	if _, err := Render(context.Background(), "digraph {}", "gif"); err == nil {
		t.Error("Render should reject unknown formats")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}
}
