// Package render draws the reading-order tree of a page as a diagram.
//
// # Overview
//
// Screen readers visit the widgets of a page in the order of its reading
// tree, which differs from the paint order designers see. This package
// makes that order visible: [ToDOT] turns a page tree into Graphviz DOT,
// with branch nodes for the structural elements, one numbered box per
// widget leaf and, optionally, dashed arrows linking consecutive leaves.
//
//	dot, err := render.ToDOT(doc, "p1", render.Options{Sequence: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Formats
//
//   - DOT: [ToDOT], for external Graphviz tools
//   - SVG: [RenderSVG], rendered in-process by go-graphviz
//   - PDF and PNG: [ToPDF] and [ToPNG] convert the SVG with rsvg-convert
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package render
