// Package tree implements the per-page reading-order tree of an infograph.
//
// The tree is an ordered hierarchy of tagged nodes whose leaves name widgets.
// Flattening it depth-first yields the accessible reading order, which is
// independent of the paint (layer) order.
//
// A node is either a leaf, holding one widget id, or a branch, holding an
// ordered list of child nodes. Every operation in this package is
// persistent: it returns a new tree that shares unchanged subtrees with its
// input and never modifies the input, so trees can be handed to history
// snapshots and concurrent readers freely.
//
// # Persisted Form
//
// Trees are encoded as JSON triples: ["div", {}, "widget-id"] for a leaf and
// ["div", {}, [child, child, ...]] for a branch.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/devtoc/infograph/pkg/widget"
)

// DefaultTag is the element tag used for new leaves and empty roots.
const DefaultTag = "div"

// Node is one element of a reading-order tree.
//
// The zero value is an empty branch with no tag. Use [Leaf], [Branch] or
// [Empty] to build nodes.
type Node struct {
	Tag   string
	Attrs map[string]any

	leaf     widget.ID
	isLeaf   bool
	children []Node
}

// Leaf returns a leaf node for a widget id.
func Leaf(id widget.ID) Node {
	return Node{Tag: DefaultTag, Attrs: map[string]any{}, leaf: id, isLeaf: true}
}

// Branch returns a branch node with the given children.
func Branch(tag string, attrs map[string]any, children ...Node) Node {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Node{Tag: tag, Attrs: attrs, children: slices.Clone(children)}
}

// Empty returns the root of an empty page: ["div", {}, []].
func Empty() Node {
	return Branch(DefaultTag, nil)
}

// IsLeaf reports whether n holds a widget id rather than children.
func (n Node) IsLeaf() bool { return n.isLeaf }

// ID returns the widget id of a leaf, or "" for a branch.
func (n Node) ID() widget.ID { return n.leaf }

// Children returns a copy of a branch's child list. Leaves have no children.
func (n Node) Children() []Node { return slices.Clone(n.children) }

// Len returns the number of immediate children.
func (n Node) Len() int { return len(n.children) }

// withChildren returns n with its child list replaced.
func (n Node) withChildren(children []Node) Node {
	n.children = children
	return n
}

// InsertLeaf returns t with a new leaf for id added to the root's children.
//
// When after is non-empty, only the immediate children of the root are
// searched for a leaf equal to after, and the new leaf is placed directly
// behind it. When after is empty, or not found at that level, the leaf is
// appended at the end of the root's children. Leaves nested deeper than the
// root's children are not considered as anchors.
func InsertLeaf(t Node, id widget.ID, after widget.ID) Node {
	if t.isLeaf {
		return t
	}
	kids := t.children
	pos := len(kids)
	if after != "" {
		for i, c := range kids {
			if c.isLeaf && c.leaf == after {
				pos = i + 1
				break
			}
		}
	}
	return t.withChildren(slices.Insert(slices.Clone(kids), pos, Leaf(id)))
}

// RemoveLeaf returns t without the first leaf equal to id, searching
// depth-first through every level. The tree is returned unchanged when it
// has no children or no leaf matches.
func RemoveLeaf(t Node, id widget.ID) Node {
	out, _ := removeLeaf(t, id)
	return out
}

func removeLeaf(n Node, id widget.ID) (Node, bool) {
	for i, c := range n.children {
		if c.isLeaf {
			if c.leaf == id {
				return n.withChildren(slices.Delete(slices.Clone(n.children), i, i+1)), true
			}
			continue
		}
		if sub, ok := removeLeaf(c, id); ok {
			kids := slices.Clone(n.children)
			kids[i] = sub
			return n.withChildren(kids), true
		}
	}
	return n, false
}

// ReplaceLeaf returns t with the first leaf equal to oldID (depth-first over
// all levels) renamed to newID. Tag and attributes of the leaf are kept.
func ReplaceLeaf(t Node, oldID, newID widget.ID) Node {
	out, _ := replaceLeaf(t, oldID, newID)
	return out
}

func replaceLeaf(n Node, oldID, newID widget.ID) (Node, bool) {
	if n.isLeaf {
		if n.leaf == oldID {
			n.leaf = newID
			return n, true
		}
		return n, false
	}
	for i, c := range n.children {
		if sub, ok := replaceLeaf(c, oldID, newID); ok {
			kids := slices.Clone(n.children)
			kids[i] = sub
			return n.withChildren(kids), true
		}
	}
	return n, false
}

// SpliceLeaf returns t with the first leaf equal to oldID (depth-first over
// all levels) replaced by one leaf per id in ids, in order. An empty ids
// removes the leaf. The first replacement keeps the old leaf's tag and
// attributes.
func SpliceLeaf(t Node, oldID widget.ID, ids ...widget.ID) Node {
	out, _ := spliceLeaf(t, oldID, ids)
	return out
}

func spliceLeaf(n Node, oldID widget.ID, ids []widget.ID) (Node, bool) {
	for i, c := range n.children {
		if c.isLeaf {
			if c.leaf != oldID {
				continue
			}
			repl := make([]Node, len(ids))
			for j, id := range ids {
				repl[j] = Leaf(id)
			}
			if len(repl) > 0 {
				repl[0].Tag, repl[0].Attrs, repl[0].leaf = c.Tag, c.Attrs, ids[0]
			}
			return n.withChildren(slices.Replace(slices.Clone(n.children), i, i+1, repl...)), true
		}
		if sub, ok := spliceLeaf(c, oldID, ids); ok {
			kids := slices.Clone(n.children)
			kids[i] = sub
			return n.withChildren(kids), true
		}
	}
	return n, false
}

// Leaves yields the leaf ids of t depth-first, left to right. The sequence
// can be ranged over any number of times and never modifies t.
func Leaves(t Node) iter.Seq[widget.ID] {
	return func(yield func(widget.ID) bool) {
		walk(t, yield)
	}
}

func walk(n Node, yield func(widget.ID) bool) bool {
	if n.isLeaf {
		return yield(n.leaf)
	}
	for _, c := range n.children {
		if !walk(c, yield) {
			return false
		}
	}
	return true
}

// Flatten returns the reading order of t: every leaf id, depth-first, left
// to right.
func Flatten(t Node) []widget.ID {
	return slices.Collect(Leaves(t))
}

// Contains reports whether t has a leaf for id at any depth.
func Contains(t Node, id widget.ID) bool {
	for leaf := range Leaves(t) {
		if leaf == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of t, including attribute maps.
func Clone(t Node) Node {
	out := t
	out.Attrs = maps.Clone(t.Attrs)
	if t.children != nil {
		out.children = make([]Node, len(t.children))
		for i, c := range t.children {
			out.children[i] = Clone(c)
		}
	}
	return out
}

// Equal reports whether a and b have the same shape, tags and leaf ids.
// Attributes are not compared.
func Equal(a, b Node) bool {
	if a.isLeaf != b.isLeaf || a.Tag != b.Tag {
		return false
	}
	if a.isLeaf {
		return a.leaf == b.leaf
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes n as a [tag, attrs, children] triple.
func (n Node) MarshalJSON() ([]byte, error) {
	attrs := n.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	tag := n.Tag
	if tag == "" {
		tag = DefaultTag
	}
	var children any
	if n.isLeaf {
		children = string(n.leaf)
	} else {
		kids := n.children
		if kids == nil {
			kids = []Node{}
		}
		children = kids
	}
	return json.Marshal([]any{tag, attrs, children})
}

// UnmarshalJSON decodes a [tag, attrs, children] triple where children is
// either a widget id string or a list of child triples.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tree node: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("tree node: want [tag, attrs, children], got %d elements", len(raw))
	}

	var out Node
	if err := json.Unmarshal(raw[0], &out.Tag); err != nil {
		return fmt.Errorf("tree node tag: %w", err)
	}
	if err := json.Unmarshal(raw[1], &out.Attrs); err != nil {
		return fmt.Errorf("tree node attrs: %w", err)
	}
	if out.Attrs == nil {
		out.Attrs = map[string]any{}
	}

	body := bytes.TrimSpace(raw[2])
	switch {
	case len(body) > 0 && body[0] == '"':
		var id string
		if err := json.Unmarshal(body, &id); err != nil {
			return fmt.Errorf("tree leaf: %w", err)
		}
		out.leaf, out.isLeaf = widget.ID(id), true
	default:
		var kids []Node
		if err := json.Unmarshal(body, &kids); err != nil {
			return fmt.Errorf("tree children: %w", err)
		}
		out.children = kids
	}
	*n = out
	return nil
}
