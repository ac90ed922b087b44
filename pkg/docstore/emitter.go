package docstore

import (
	"context"
	"sync"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/widget"
)

// Event names passed to [Emitter.Emit].
const (
	// EventChanged follows every dispatched command that changed the
	// document. Data is a [Change].
	EventChanged = "document:changed"

	// EventRestored follows an undo or redo. Data is a [Restore].
	EventRestored = "document:restored"

	// EventSelection follows a selection change. Data is a []widget.ID.
	EventSelection = "selection:changed"
)

// Change describes the effect of one command.
type Change struct {
	DocumentID string          `json:"documentId"`
	Command    string          `json:"command"`
	Page       document.PageID `json:"pageId,omitempty"`
	Created    []widget.ID     `json:"created,omitempty"`
	Removed    []widget.ID     `json:"removed,omitempty"`
}

// Restore describes an undo or redo.
type Restore struct {
	DocumentID string `json:"documentId"`
	Action     string `json:"action"` // "undo" or "redo"
	Label      string `json:"label"`
}

// Emitter receives store events. The HTTP server forwards them to clients,
// the TUI redraws on them.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly Emitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}

// FuncEmitter adapts a function to [Emitter].
type FuncEmitter func(ctx context.Context, event string, data any)

func (f FuncEmitter) Emit(ctx context.Context, event string, data any) { f(ctx, event, data) }
