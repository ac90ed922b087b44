package records

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// Root is the first path segment of every record.
const Root = "infographs"

// Record is one persisted row: a document header, a page, or a widget.
type Record struct {
	Path string          `json:"-"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Kind classifies a record by its path.
type Kind int

const (
	KindDocument Kind = iota
	KindPage
	KindWidget
)

// DocumentPath returns the path of a document header record.
func DocumentPath(docID string) string { return Root + "/" + docID }

// PagePath returns the path of a page record.
func PagePath(docID string, pid document.PageID) string {
	return DocumentPath(docID) + "/pages/" + string(pid)
}

// WidgetPath returns the path of a widget record.
func WidgetPath(docID string, id widget.ID) string {
	return DocumentPath(docID) + "/widgets/" + string(id)
}

// ParsePath splits a record path into its document id, kind and the id of
// the page or widget it names. Widgets may also be stored under their page:
// infographs/{doc}/pages/{page}/widgets/{id}.
func ParsePath(path string) (docID string, kind Kind, id string, err error) {
	if err := errors.ValidateRecordPath(path); err != nil {
		return "", 0, "", err
	}
	parts := strings.Split(path, "/")
	if parts[0] != Root {
		return "", 0, "", errors.New(errors.ErrCodeInvalidRecord, "record path %q is outside %s/", path, Root)
	}
	switch {
	case len(parts) == 2:
		return parts[1], KindDocument, parts[1], nil
	case len(parts) == 4 && parts[2] == "pages":
		return parts[1], KindPage, parts[3], nil
	case len(parts) == 4 && parts[2] == "widgets":
		return parts[1], KindWidget, parts[3], nil
	case len(parts) == 6 && parts[2] == "pages" && parts[4] == "widgets":
		return parts[1], KindWidget, parts[5], nil
	}
	return "", 0, "", errors.New(errors.ErrCodeInvalidRecord, "unrecognized record path %q", path)
}

type header struct {
	Title     string            `json:"title"`
	PageSize  document.Size     `json:"pageSize"`
	Language  string            `json:"language"`
	Swatch    []string          `json:"swatch"`
	PageOrder []document.PageID `json:"pageOrder"`
}

type pageData struct {
	Background map[string]any `json:"background,omitempty"`
	LayerOrder []widget.ID     `json:"widgetLayerOrder"`
	Tree       *tree.Node      `json:"widgetStructureTree,omitempty"`
}

// Assemble rebuilds a document from its records. Records may come in any
// order. A record without an id or data, with an id that disagrees with its
// path, or with an unknown path shape aborts the whole load: no partially
// populated document is ever returned. Pages missing from the header's page
// order are appended to it in id order.
func Assemble(recs []Record) (*document.Document, error) {
	var (
		doc     *document.Document
		hdr     header
		hasHdr  bool
		pages   = map[document.PageID]*document.Page{}
		widgets = map[widget.ID]widget.Data{}
	)
	for _, r := range recs {
		docID, kind, id, err := ParsePath(r.Path)
		if err != nil {
			return nil, err
		}
		if err := checkRecord(r, id); err != nil {
			return nil, err
		}
		if doc != nil && doc.ID != docID {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "record %s belongs to document %s, not %s", r.Path, docID, doc.ID)
		}
		switch kind {
		case KindDocument:
			if hasHdr {
				return nil, errors.New(errors.ErrCodeInvalidRecord, "duplicate document record %s", r.Path)
			}
			if err := json.Unmarshal(r.Data, &hdr); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode %s", r.Path)
			}
			hasHdr = true
		case KindPage:
			var pd pageData
			if err := json.Unmarshal(r.Data, &pd); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode %s", r.Path)
			}
			p := document.NewPage(document.PageID(id))
			p.Background = pd.Background
			if pd.LayerOrder != nil {
				p.LayerOrder = pd.LayerOrder
			}
			if pd.Tree != nil {
				p.Tree = *pd.Tree
			}
			pages[p.ID] = p
		case KindWidget:
			var w widget.Data
			if err := json.Unmarshal(r.Data, &w); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode %s", r.Path)
			}
			widgets[widget.ID(id)] = w
		}
		if doc == nil {
			doc = document.New(docID, "")
		}
	}
	if !hasHdr {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "no document record")
	}

	doc.Title = hdr.Title
	doc.PageSize = hdr.PageSize
	doc.Language = hdr.Language
	for _, c := range hdr.Swatch {
		doc.AddColor(c)
	}
	for _, pid := range hdr.PageOrder {
		if _, ok := pages[pid]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "page %s listed in %s has no record", pid, DocumentPath(doc.ID))
		}
		doc.Order = append(doc.Order, pid)
	}
	for _, pid := range slices.Sorted(maps.Keys(pages)) {
		if !slices.Contains(doc.Order, pid) {
			doc.Order = append(doc.Order, pid)
		}
	}
	doc.Pages = pages
	doc.Widgets = widgets
	return doc, nil
}

func checkRecord(r Record, pathID string) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidRecord, "record %s has no id", r.Path)
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return errors.New(errors.ErrCodeInvalidRecord, "record %s has no data", r.Path)
	}
	if r.ID != pathID {
		return errors.New(errors.ErrCodeInvalidRecord, "record %s has id %q", r.Path, r.ID)
	}
	return nil
}

// Export flattens a document into records: the header, then pages in page
// order, then widgets sorted by id.
func Export(d *document.Document) ([]Record, error) {
	out := make([]Record, 0, 1+len(d.Pages)+len(d.Widgets))

	hdr := header{Title: d.Title, PageSize: d.PageSize, Language: d.Language, Swatch: d.Swatch, PageOrder: d.Order}
	r, err := record(DocumentPath(d.ID), d.ID, hdr)
	if err != nil {
		return nil, err
	}
	out = append(out, r)

	for _, pid := range d.Order {
		p, ok := d.Pages[pid]
		if !ok {
			continue
		}
		t := p.Tree
		r, err := record(PagePath(d.ID, pid), string(pid), pageData{Background: p.Background, LayerOrder: p.LayerOrder, Tree: &t})
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	for _, id := range slices.Sorted(maps.Keys(d.Widgets)) {
		r, err := record(WidgetPath(d.ID, id), string(id), d.Widgets[id])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func record(path, id string, v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", path, err)
	}
	return Record{Path: path, ID: id, Data: data}, nil
}
