package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatDOT, FormatSVG, FormatPDF, FormatPNG}
}

// Options configures diagram generation.
type Options struct {
	// Labels adds the widget kind and the branch attributes to node labels.
	// When false, leaves show only their position and id.
	Labels bool

	// Sequence links consecutive leaves with dashed arrows.
	Sequence bool
}

// ToDOT converts the reading-order tree of page pid to Graphviz DOT.
//
// Hidden widgets are drawn with a dashed grey outline. Leaves that name no
// widget of d are drawn in red.
func ToDOT(d *document.Document, pid document.PageID, opts Options) (string, error) {
	p, ok := d.Page(pid)
	if !ok {
		return "", errors.New(errors.ErrCodePageNotFound, "page %s not found", pid)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", string(pid))
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	w := &dotWriter{buf: &buf, doc: d, opts: opts}
	w.node(p.Tree)

	if opts.Sequence && len(w.leaves) > 1 {
		buf.WriteString("\n  edge [style=dashed, color=gray50, constraint=false];\n")
		for i := 1; i < len(w.leaves); i++ {
			fmt.Fprintf(&buf, "  %s -> %s;\n", w.leaves[i-1], w.leaves[i])
		}
	}
	buf.WriteString("}\n")
	return buf.String(), nil
}

type dotWriter struct {
	buf    *bytes.Buffer
	doc    *document.Document
	opts   Options
	next   int
	leaves []string
}

// node writes n and its subtree and returns the DOT name of n.
func (w *dotWriter) node(n tree.Node) string {
	name := fmt.Sprintf("n%d", w.next)
	w.next++

	if n.IsLeaf() {
		w.leaves = append(w.leaves, name)
		label, attrs := w.leafLabel(n.ID(), len(w.leaves))
		fmt.Fprintf(w.buf, "  %s [label=%q%s];\n", name, label, attrs)
		return name
	}

	fmt.Fprintf(w.buf, "  %s [label=%q, shape=folder, style=filled, fillcolor=lightsteelblue];\n", name, w.branchLabel(n))
	for _, c := range n.Children() {
		child := w.node(c)
		fmt.Fprintf(w.buf, "  %s -> %s;\n", name, child)
	}
	return name
}

func (w *dotWriter) leafLabel(id widget.ID, pos int) (string, string) {
	label := fmt.Sprintf("%d. %s", pos, id)
	data, ok := w.doc.Widget(id)
	if !ok {
		return label, ", color=red, fontcolor=red"
	}
	if w.opts.Labels {
		label += "\n" + string(data.Kind())
		if text := data.Str("text"); text != "" {
			label += "\n" + truncate(text, 24)
		}
	}
	if data.IsHidden() {
		return label, ", style=\"rounded,filled,dashed\", fillcolor=gray90, fontcolor=gray40"
	}
	return label, ""
}

func (w *dotWriter) branchLabel(n tree.Node) string {
	tag := n.Tag
	if tag == "" {
		tag = "div"
	}
	if !w.opts.Labels || len(n.Attrs) == 0 {
		return tag
	}
	parts := []string{tag}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Attrs[k]))
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
