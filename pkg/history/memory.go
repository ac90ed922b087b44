package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps history in process memory.
type Memory struct {
	mu    sync.Mutex
	limit int
	docs  map[string]*memTree
}

type memTree struct {
	nodes   []*Entry // creation order
	current string
}

// NewMemory returns an in-memory history keeping at most limit nodes per
// document. A limit below 2 selects [DefaultLimit].
func NewMemory(limit int) *Memory {
	if limit < 2 {
		limit = DefaultLimit
	}
	return &Memory{limit: limit, docs: make(map[string]*memTree)}
}

func (m *Memory) Push(_ context.Context, docID, label string, snapshot []byte) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.docs[docID]
	if t == nil {
		t = &memTree{}
		m.docs[docID] = t
	}
	e := &Entry{
		ID:        uuid.NewString(),
		ParentID:  t.current,
		Label:     label,
		Snapshot:  slices.Clone(snapshot),
		CreatedAt: time.Now(),
	}
	t.nodes = append(t.nodes, e)
	t.current = e.ID
	t.prune(m.limit)
	return *e, nil
}

func (t *memTree) find(id string) *Entry {
	for _, e := range t.nodes {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (t *memTree) prune(limit int) {
	for len(t.nodes) > limit {
		i := 0
		if t.nodes[0].ID == t.current {
			i = 1
		}
		victim := t.nodes[i]
		for _, e := range t.nodes {
			if e.ParentID == victim.ID {
				e.ParentID = victim.ParentID
			}
		}
		t.nodes = slices.Delete(t.nodes, i, i+1)
	}
}

func (m *Memory) Undo(_ context.Context, docID string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.docs[docID]
	if t == nil {
		return Entry{}, false, nil
	}
	cur := t.find(t.current)
	if cur == nil || cur.ParentID == "" {
		return Entry{}, false, nil
	}
	parent := t.find(cur.ParentID)
	if parent == nil {
		return Entry{}, false, nil
	}
	t.current = parent.ID
	return *parent, true, nil
}

func (m *Memory) Redo(_ context.Context, docID string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.docs[docID]
	if t == nil || t.current == "" {
		return Entry{}, false, nil
	}
	for _, e := range slices.Backward(t.nodes) {
		if e.ParentID == t.current {
			t.current = e.ID
			return *e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (m *Memory) Current(_ context.Context, docID string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.docs[docID]
	if t == nil {
		return Entry{}, false, nil
	}
	if e := t.find(t.current); e != nil {
		return *e, true, nil
	}
	return Entry{}, false, nil
}

func (m *Memory) Entries(_ context.Context, docID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.docs[docID]
	if t == nil {
		return nil, nil
	}
	out := make([]Entry, len(t.nodes))
	for i, e := range t.nodes {
		out[i] = *e
		out[i].Snapshot = nil
	}
	return out, nil
}

func (m *Memory) Clear(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, docID)
	return nil
}

func (m *Memory) Close() error { return nil }

var _ History = (*Memory)(nil)
