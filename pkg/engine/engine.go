package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/migrate"
	"github.com/devtoc/infograph/pkg/widget"
)

// IDGenerator returns a fresh id for a new widget of the given kind. Page
// ids are requested with kind "page".
type IDGenerator func(kind widget.Kind) widget.ID

// Schema reports the current schema version of a widget kind. New widgets
// built by the engine (groups, duplicates without a version) are stamped
// with it. *migrate.Migrator implements Schema.
type Schema interface {
	Latest(kind widget.Kind) (int, bool)
}

const pageKind widget.Kind = "page"

// Result describes what a command did.
type Result struct {
	// Changed is false when the command was rejected (unknown page or widget,
	// empty selection) and the input document was returned as is.
	Changed bool

	// Page is the page the command touched or created.
	Page document.PageID

	// Created lists widgets added by the command, top-level first.
	Created []widget.ID

	// Removed lists widget records deleted by the command.
	Removed []widget.ID
}

// Engine applies structural commands to documents.
//
// Every operation takes a document and returns a new one; the input is
// never modified. Referential errors (an unknown page or widget id) are
// logged as warnings and yield the input document with Result.Changed
// unset, so an interactive session survives stale selections.
type Engine struct {
	newID  IDGenerator
	schema Schema
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the default uuid-based id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.newID = g }
}

// WithSchema sets the version source for widgets the engine creates.
func WithSchema(s Schema) Option {
	return func(e *Engine) { e.schema = s }
}

// WithLogger sets the logger used for rejected commands.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine. Without options it generates ids with
// widget.NewID, stamps versions from migrate.Default and discards logs.
func New(opts ...Option) *Engine {
	e := &Engine{newID: widget.NewID}
	for _, opt := range opts {
		opt(e)
	}
	if e.schema == nil {
		e.schema = migrate.MustNew(migrate.Default())
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Apply dispatches cmd to the matching operation. The only error is an
// unsupported command type; rejected commands are reported through Result.
func (e *Engine) Apply(d *document.Document, cmd Command) (*document.Document, Result, error) {
	var (
		out *document.Document
		res Result
	)
	switch c := cmd.(type) {
	case AddWidget:
		out, res = e.AddWidget(d, c)
	case RemoveWidget:
		out, res = e.RemoveWidget(d, c)
	case ReplaceWidget:
		out, res = e.ReplaceWidget(d, c)
	case UpdateWidget:
		out, res = e.UpdateWidget(d, c)
	case GroupWidgets:
		out, res = e.GroupWidgets(d, c)
	case UngroupWidget:
		out, res = e.UngroupWidget(d, c)
	case DuplicatePage:
		out, res = e.DuplicatePage(d, c)
	case SetStructureTree:
		out, res = e.SetStructureTree(d, c)
	case AddPage:
		out, res = e.AddPage(d, c)
	case RemovePage:
		out, res = e.RemovePage(d, c)
	case MovePage:
		out, res = e.MovePage(d, c)
	case MoveWidgetInLayer:
		out, res = e.MoveWidgetInLayer(d, c)
	case UpdateDocument:
		out, res = e.UpdateDocument(d, c)
	default:
		return d, Result{}, errors.New(errors.ErrCodeInvalidCommand, "unsupported command %T", cmd)
	}
	return out, res, nil
}

// reject logs a referential error and returns d unchanged.
func (e *Engine) reject(d *document.Document, op, msg string, keyvals ...any) (*document.Document, Result) {
	e.logger.Warn(op+": "+msg, keyvals...)
	return d, Result{}
}

func (e *Engine) latest(kind widget.Kind) int {
	if v, ok := e.schema.Latest(kind); ok {
		return v
	}
	return 1
}

// register adds nw and, recursively, its members to the widget table of d.
// Member ids are generated where missing and written into the composite's
// memberWidgetIds (and componentWidgetIdMap for slotted members). It
// returns the ids registered, nw first.
func (e *Engine) register(d *document.Document, nw NewWidget) (widget.ID, []widget.ID) {
	id := nw.ID
	if id == "" {
		id = e.newID(nw.Data.Kind())
	}
	data := nw.Data.Clone()
	if _, ok := data[widget.FieldVersion]; !ok {
		data.SetVersion(e.latest(data.Kind()))
	}

	created := []widget.ID{id}
	if len(nw.Members) > 0 {
		ids := make([]widget.ID, 0, len(nw.Members))
		slots := data.Components()
		for _, m := range nw.Members {
			mid, sub := e.register(d, m)
			ids = append(ids, mid)
			created = append(created, sub...)
			if m.Slot != "" {
				if slots == nil {
					slots = map[string]widget.ID{}
				}
				slots[m.Slot] = mid
			}
		}
		data.SetMemberIDs(ids)
		if data.Kind().IsResponsive() && slots != nil {
			data.SetComponents(slots)
		}
	}
	d.Widgets[id] = data
	return id, created
}

// validNew reports why nw cannot be added, or "" when it can. Explicit ids
// must be unused in d and unique within the payload.
func validNew(d *document.Document, nw NewWidget) string {
	return checkNew(d, nw, map[widget.ID]bool{})
}

func checkNew(d *document.Document, nw NewWidget, seen map[widget.ID]bool) string {
	if nw.Data == nil {
		return "widget has no data"
	}
	if !nw.Data.Kind().Valid() {
		return "unknown widget type " + string(nw.Data.Kind())
	}
	if nw.ID != "" {
		if _, exists := d.Widgets[nw.ID]; exists {
			return "widget id already in use: " + string(nw.ID)
		}
		if seen[nw.ID] {
			return "widget id repeated in payload: " + string(nw.ID)
		}
		seen[nw.ID] = true
	}
	for _, m := range nw.Members {
		if msg := checkNew(d, m, seen); msg != "" {
			return msg
		}
	}
	return ""
}

// onOtherPage returns the page holding id when that is not page. Widgets
// that sit on no page report false.
func onOtherPage(d *document.Document, id widget.ID, page document.PageID) (document.PageID, bool) {
	pid, ok := d.PageOf(id)
	if !ok || pid == page {
		return "", false
	}
	return pid, true
}

// anchorLeaf returns the tree leaf that stands for id when inserting "next
// to" it: the last member leaf for a plain group, id itself otherwise.
func anchorLeaf(d *document.Document, id widget.ID) widget.ID {
	if id == "" {
		return ""
	}
	leaves := document.LeavesOf(d.Widgets, id)
	if len(leaves) == 0 {
		return ""
	}
	return leaves[len(leaves)-1]
}

// setWidget stores a modified copy of a widget record.
func setWidget(d *document.Document, id widget.ID, edit func(w widget.Data)) {
	w := d.Widgets[id].Clone()
	edit(w)
	d.Widgets[id] = w
}
