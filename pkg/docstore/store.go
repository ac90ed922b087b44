package docstore

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/engine"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/history"
	"github.com/devtoc/infograph/pkg/navigate"
	"github.com/devtoc/infograph/pkg/observability"
	"github.com/devtoc/infograph/pkg/widget"
)

// Store owns the live state of one open document.
//
// All methods are safe for concurrent use; commands are applied one at a
// time in the order Dispatch is called. Documents returned by the store
// are shared and must be treated as read-only.
type Store struct {
	mu sync.Mutex

	engine  *engine.Engine
	history history.History
	emitter Emitter
	logger  *log.Logger
	check   bool

	doc       *document.Document
	parents   *document.ParentIndex
	selection []widget.ID
}

// Option configures a Store.
type Option func(*Store)

// WithEngine sets the engine commands are applied with.
func WithEngine(e *engine.Engine) Option {
	return func(s *Store) { s.engine = e }
}

// WithHistory enables undo and redo, recording a snapshot after every
// change.
func WithHistory(h history.History) Option {
	return func(s *Store) { s.history = h }
}

// WithEmitter sets the receiver of change events.
func WithEmitter(e Emitter) Option {
	return func(s *Store) { s.emitter = e }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithChecks validates the document after every command and refuses
// commands that would leave it inconsistent.
func WithChecks(on bool) Option {
	return func(s *Store) { s.check = on }
}

// New opens a store on doc. With history enabled the initial state is
// recorded as the first snapshot.
func New(ctx context.Context, doc *document.Document, opts ...Option) (*Store, error) {
	s := &Store{emitter: NopEmitter{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.engine == nil {
		s.engine = engine.New(engine.WithLogger(s.logger))
	}
	s.set(doc)
	if err := s.record(ctx, "open"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) set(doc *document.Document) {
	s.doc = doc
	s.parents = document.BuildParentIndex(doc)
	s.selection = slices.DeleteFunc(s.selection, func(id widget.ID) bool {
		_, ok := doc.Widgets[id]
		return !ok
	})
}

func (s *Store) record(ctx context.Context, label string) error {
	if s.history == nil {
		return nil
	}
	data, err := encode(s.doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "snapshot %s", s.doc.ID)
	}
	if _, err := s.history.Push(ctx, s.doc.ID, label, data); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "record history")
	}
	return nil
}

// Dispatch applies cmd to the current document.
//
// A command the engine rejects (unknown ids, empty selection) returns a
// Result with Changed unset and a nil error. Errors are reserved for
// malformed commands, failed consistency checks and history failures.
func (s *Store) Dispatch(ctx context.Context, cmd engine.Command) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(ctx, cmd)
}

// DispatchAll applies cmds in order and stops at the first error.
func (s *Store) DispatchAll(ctx context.Context, cmds []engine.Command) ([]engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]engine.Result, 0, len(cmds))
	for _, cmd := range cmds {
		res, err := s.dispatch(ctx, cmd)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Store) dispatch(ctx context.Context, cmd engine.Command) (engine.Result, error) {
	start := time.Now()
	next, res, err := s.engine.Apply(s.doc, cmd)
	if err == nil && res.Changed && s.check {
		if err = document.Validate(next); err != nil {
			s.logger.Error("command broke document invariants", "type", cmd.CommandType(), "err", err)
			res = engine.Result{}
		}
	}
	observability.Command().OnCommand(ctx, s.doc.ID, cmd.CommandType(), res.Changed, time.Since(start), err)
	if err != nil || !res.Changed {
		return res, err
	}

	s.set(next)
	if err := s.record(ctx, cmd.CommandType()); err != nil {
		return res, err
	}
	s.emitter.Emit(ctx, EventChanged, Change{
		DocumentID: next.ID,
		Command:    cmd.CommandType(),
		Page:       res.Page,
		Created:    res.Created,
		Removed:    res.Removed,
	})
	return res, nil
}

// RemoveWidgetDeep removes a widget together with all of its members.
func (s *Store) RemoveWidgetDeep(ctx context.Context, page document.PageID, id widget.ID) (engine.Result, error) {
	return s.Dispatch(ctx, engine.RemoveWidget{PageID: page, WidgetID: id, Cascade: true})
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (s *Store) Undo(ctx context.Context) (bool, error) {
	return s.travel(ctx, "undo", s.historyUndo)
}

// Redo restores the most recently undone snapshot.
func (s *Store) Redo(ctx context.Context) (bool, error) {
	return s.travel(ctx, "redo", s.historyRedo)
}

func (s *Store) historyUndo(ctx context.Context, id string) (history.Entry, bool, error) {
	return s.history.Undo(ctx, id)
}

func (s *Store) historyRedo(ctx context.Context, id string) (history.Entry, bool, error) {
	return s.history.Redo(ctx, id)
}

func (s *Store) travel(ctx context.Context, action string, move func(context.Context, string) (history.Entry, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history == nil {
		return false, errors.New(errors.ErrCodeUnsupported, "history is disabled")
	}
	e, ok, err := move(ctx, s.doc.ID)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "%s", action)
	}
	observability.Command().OnHistory(ctx, s.doc.ID, action, ok)
	if !ok {
		return false, nil
	}
	doc, err := decode(e.Snapshot)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "restore snapshot %s", e.ID)
	}
	s.set(doc)
	s.logger.Debug(action, "doc", doc.ID, "label", e.Label)
	s.emitter.Emit(ctx, EventRestored, Restore{DocumentID: doc.ID, Action: action, Label: e.Label})
	return true, nil
}

// Document returns the current document.
func (s *Store) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Parents returns the parent index of the current document. It is rebuilt
// after every change and must not be modified.
func (s *Store) Parents() *document.ParentIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parents
}

// Select replaces the selection. Unknown ids are dropped.
func (s *Store) Select(ctx context.Context, ids ...widget.ID) []widget.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectIDs(ctx, ids)
}

func (s *Store) selectIDs(ctx context.Context, ids []widget.ID) []widget.ID {
	sel := make([]widget.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.doc.Widgets[id]; ok && !slices.Contains(sel, id) {
			sel = append(sel, id)
		}
	}
	s.selection = sel
	s.emitter.Emit(ctx, EventSelection, slices.Clone(sel))
	return slices.Clone(sel)
}

// Selection returns the selected widget ids.
func (s *Store) Selection() []widget.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selection)
}

// Active returns the navigation descriptors of the selection.
func (s *Store) Active() []navigate.Active {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active()
}

func (s *Store) active() []navigate.Active {
	out := make([]navigate.Active, len(s.selection))
	for i, id := range s.selection {
		out[i] = navigate.ActiveFor(s.doc, s.parents, id)
	}
	return out
}

// Next selects the widget Tab moves to on page and returns it.
func (s *Store) Next(ctx context.Context, page document.PageID) (widget.ID, bool) {
	return s.navigate(ctx, page, navigate.Next)
}

// Previous selects the widget Shift-Tab moves to on page and returns it.
func (s *Store) Previous(ctx context.Context, page document.PageID) (widget.ID, bool) {
	return s.navigate(ctx, page, navigate.Previous)
}

type navFunc func([]navigate.Active, []widget.ID, map[widget.ID]widget.Data, *document.ParentIndex) (widget.ID, bool)

func (s *Store) navigate(ctx context.Context, page document.PageID, nav navFunc) (widget.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.doc.Page(page)
	if !ok {
		s.logger.Warn("navigate: unknown page", "page", page)
		return "", false
	}
	id, ok := nav(s.active(), p.LayerOrder, s.doc.Widgets, s.parents)
	if !ok {
		return "", false
	}
	s.selectIDs(ctx, []widget.ID{id})
	return id, true
}
