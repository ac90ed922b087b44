package migrate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/widget"
)

// Members is a read-only snapshot of a composite's member widgets, keyed by
// id. Steps may read it but must not modify the records it holds.
type Members map[widget.ID]widget.Data

// UpgradeFunc upgrades w in place by one schema version. It may return brand
// new widgets to be added next to w, for example when an implicit member is
// made explicit.
type UpgradeFunc func(id widget.ID, w widget.Data, members Members) (map[widget.ID]widget.Data, error)

// Step upgrades a widget from Version-1 to Version.
type Step struct {
	Version int
	Upgrade UpgradeFunc
}

// Chain is the ordered upgrade history of one widget kind. Latest is the
// version current code expects; Steps holds one step per version in
// [2, Latest].
type Chain struct {
	Latest int
	Steps  []Step
}

// Config maps every widget kind to its chain.
type Config map[widget.Kind]Chain

// Migrator upgrades persisted widget data to the latest schema versions.
// It is immutable after construction and safe for concurrent use.
type Migrator struct {
	chains map[widget.Kind]Chain
}

// New validates cfg and returns a Migrator. Every kind returned by
// widget.Kinds must be configured, and each chain must hold exactly one step
// per version from 2 to Latest, in order. Any mismatch yields a
// SCHEMA_CONFIG error.
func New(cfg Config) (*Migrator, error) {
	for _, k := range widget.Kinds() {
		if _, ok := cfg[k]; !ok {
			return nil, errors.New(errors.ErrCodeSchemaConfig, "no migration chain for widget kind %q", k)
		}
	}
	chains := make(map[widget.Kind]Chain, len(cfg))
	for _, k := range slices.Sorted(maps.Keys(cfg)) {
		c := cfg[k]
		if !k.Valid() {
			return nil, errors.New(errors.ErrCodeSchemaConfig, "migration chain for unknown widget kind %q", k)
		}
		if c.Latest < 1 {
			return nil, errors.New(errors.ErrCodeSchemaConfig, "%s: latest version %d is below 1", k, c.Latest)
		}
		if len(c.Steps)+1 != c.Latest {
			return nil, errors.New(errors.ErrCodeSchemaConfig,
				"%s: latest version is %d but chain has %d steps, want %d", k, c.Latest, len(c.Steps), c.Latest-1)
		}
		for i, s := range c.Steps {
			if s.Version != i+2 {
				return nil, errors.New(errors.ErrCodeSchemaConfig, "%s: step %d has version %d, want %d", k, i, s.Version, i+2)
			}
			if s.Upgrade == nil {
				return nil, errors.New(errors.ErrCodeSchemaConfig, "%s: step for version %d has no upgrade function", k, s.Version)
			}
		}
		chains[k] = Chain{Latest: c.Latest, Steps: slices.Clone(c.Steps)}
	}
	return &Migrator{chains: chains}, nil
}

// MustNew is like New but panics on an invalid configuration. It is meant
// for process start, where a broken chain table is a programming error.
func MustNew(cfg Config) *Migrator {
	m, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return m
}

// Latest returns the current schema version of kind.
func (m *Migrator) Latest(kind widget.Kind) (int, bool) {
	c, ok := m.chains[kind]
	return c.Latest, ok
}

// Versions lists each configured kind with its latest version, sorted by
// kind. It identifies the schema in cache keys.
func (m *Migrator) Versions() []string {
	return SupportedVersions(m.chains)
}

// NeedsUpgrade reports whether w is older than its kind's latest version.
func (m *Migrator) NeedsUpgrade(w widget.Data) bool {
	c, ok := m.chains[w.Kind()]
	return ok && w.Version() < c.Latest
}

// Migrate upgrades a single widget. It never modifies w: the result is
// always a fresh clone, even when w is already current. The second result
// holds widgets created by the applied steps; they are returned as the
// steps built them and are not themselves migrated (see Update).
func (m *Migrator) Migrate(id widget.ID, w widget.Data, members Members) (widget.Data, map[widget.ID]widget.Data, error) {
	c, ok := m.chains[w.Kind()]
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInvalidRecord, "widget %s has unknown type %q", id, w.Kind())
	}
	out := w.Clone()
	cur := w.Version()
	switch {
	case cur == c.Latest:
		return out, nil, nil
	case cur > c.Latest:
		return nil, nil, errors.New(errors.ErrCodeSchemaVersion,
			"widget %s (%s) has version %d, newer than supported %d", id, w.Kind(), cur, c.Latest)
	}

	var created map[widget.ID]widget.Data
	for _, s := range c.Steps[cur-1:] {
		extra, err := s.Upgrade(id, out, members)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeSchemaVersion, err,
				"upgrade %s (%s) to version %d", id, w.Kind(), s.Version)
		}
		out.SetVersion(s.Version)
		if len(extra) > 0 {
			if created == nil {
				created = make(map[widget.ID]widget.Data, len(extra))
			}
			maps.Copy(created, extra)
		}
	}
	return out, created, nil
}

// Update migrates every widget of a widget table and returns a new table.
// Widgets contributed by upgrade steps are migrated as well and added to the
// result; a persisted widget with the same id takes precedence over a
// contributed one. Update is idempotent: running it on its own output
// returns an equal table.
func (m *Migrator) Update(widgets map[widget.ID]widget.Data) (map[widget.ID]widget.Data, error) {
	out := make(map[widget.ID]widget.Data, len(widgets))
	pending := map[widget.ID]widget.Data{}

	for _, id := range slices.Sorted(maps.Keys(widgets)) {
		w := widgets[id]
		next, created, err := m.Migrate(id, w, snapshot(widgets, w))
		if err != nil {
			return nil, err
		}
		out[id] = next
		for cid, cw := range created {
			if _, exists := widgets[cid]; !exists {
				pending[cid] = cw
			}
		}
	}

	// Contributed widgets may themselves be behind their latest version.
	for depth := 0; len(pending) > 0; depth++ {
		if depth > 8 {
			return nil, errors.New(errors.ErrCodeSchemaConfig, "upgrade steps keep creating widgets")
		}
		round := pending
		pending = map[widget.ID]widget.Data{}
		for _, id := range slices.Sorted(maps.Keys(round)) {
			next, created, err := m.Migrate(id, round[id], snapshot(round, round[id]))
			if err != nil {
				return nil, err
			}
			out[id] = next
			for cid, cw := range created {
				if _, exists := out[cid]; !exists {
					pending[cid] = cw
				}
			}
		}
	}
	return out, nil
}

// MigrateDocument returns a copy of d whose widget table has been passed
// through Update. d is not modified.
func (m *Migrator) MigrateDocument(d *document.Document) (*document.Document, error) {
	widgets, err := m.Update(d.Widgets)
	if err != nil {
		return nil, fmt.Errorf("migrate document %s: %w", d.ID, err)
	}
	out := d.ShallowClone()
	out.Widgets = widgets
	return out, nil
}

// Pending returns the ids of widgets in the table that are behind their
// latest version, sorted.
func (m *Migrator) Pending(widgets map[widget.ID]widget.Data) []widget.ID {
	var ids []widget.ID
	for id, w := range widgets {
		if m.NeedsUpgrade(w) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// snapshot collects the member records of w that exist in table. It reads
// both the current member field and the legacy group field so that steps
// upgrading old composites can see their members.
func snapshot(table map[widget.ID]widget.Data, w widget.Data) Members {
	ids := w.MemberIDs()
	if ids == nil {
		ids = widget.Data{widget.FieldMembers: w[legacyGroupMembers]}.MemberIDs()
	}
	if len(ids) == 0 {
		return nil
	}
	out := make(Members, len(ids))
	for _, id := range ids {
		if mw, ok := table[id]; ok {
			out[id] = mw
		}
	}
	return out
}
