package docstore

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/engine"
	"github.com/devtoc/infograph/pkg/migrate"
	"github.com/devtoc/infograph/pkg/observability"
	"github.com/devtoc/infograph/pkg/records"
	"github.com/devtoc/infograph/pkg/storage"
)

// Loader turns stored records into documents ready for editing.
//
// Loading assembles the records, upgrades every widget to the current
// schema and checks the document invariants. The migrated form is cached
// under a key derived from the record hash and the schema versions, so a
// document is only migrated once per schema.
//
// The Loader is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Loader.
type Loader struct {
	Repo     storage.Repository
	Migrator *migrate.Migrator
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewLoader creates a loader reading from repo.
// If m is nil, the built-in schema is used.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewLoader(repo storage.Repository, m *migrate.Migrator, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Loader {
	if m == nil {
		m = migrate.MustNew(migrate.Default())
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{Repo: repo, Migrator: m, Cache: c, Keyer: keyer, Logger: logger}
}

// Load reads, migrates and validates document docID.
func (l *Loader) Load(ctx context.Context, docID string) (*document.Document, error) {
	doc, _, err := l.LoadWithCacheInfo(ctx, docID)
	return doc, err
}

// LoadWithCacheInfo is Load, also reporting whether the migrated document
// came from the cache.
func (l *Loader) LoadWithCacheInfo(ctx context.Context, docID string) (*document.Document, bool, error) {
	recs, err := l.Repo.Load(ctx, docID)
	if err != nil {
		return nil, false, err
	}
	return l.Decode(ctx, recs)
}

// Decode builds a migrated, validated document from records. The records
// are not modified; a malformed record fails the whole load.
func (l *Loader) Decode(ctx context.Context, recs []records.Record) (*document.Document, bool, error) {
	key := l.Keyer.MigrationKey(records.Hash(recs), cache.MigrationKeyOpts{Schema: l.Migrator.Versions()})

	if data, hit, err := l.Cache.Get(ctx, key); err == nil && hit {
		if doc, err := decode(data); err == nil {
			observability.Cache().OnCacheHit(ctx, cache.KeyTypeMigration)
			l.Logger.Debug("migrated document from cache", "doc", doc.ID)
			return doc, true, nil
		}
		// Unreadable entries are recomputed and overwritten.
	}
	observability.Cache().OnCacheMiss(ctx, cache.KeyTypeMigration)

	doc, err := records.Assemble(recs)
	if err != nil {
		return nil, false, err
	}
	migrated, err := l.migrate(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	if err := document.Validate(migrated); err != nil {
		return nil, false, err
	}

	if data, err := encode(migrated); err == nil {
		if err := l.Cache.Set(ctx, key, data, cache.TTLMigration); err != nil {
			l.Logger.Warn("cache migrated document", "doc", doc.ID, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.KeyTypeMigration, len(data))
		}
	}
	return migrated, false, nil
}

func (l *Loader) migrate(ctx context.Context, doc *document.Document) (*document.Document, error) {
	pending := l.Migrator.Pending(doc.Widgets)
	hooks := observability.Migration()
	hooks.OnMigrationStart(ctx, doc.ID, len(doc.Widgets))
	start := time.Now()
	migrated, err := l.Migrator.MigrateDocument(doc)
	hooks.OnMigrationComplete(ctx, doc.ID, len(pending), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		l.Logger.Info("upgraded legacy widgets", "doc", doc.ID, "count", len(pending))
	}
	return migrated, nil
}

// Save exports doc and replaces its stored records.
func (l *Loader) Save(ctx context.Context, doc *document.Document) error {
	recs, err := records.Export(doc)
	if err != nil {
		return err
	}
	return l.Repo.Save(ctx, doc.ID, recs)
}

// Open loads docID and opens a store on it. The store's engine stamps new
// widgets with the loader's schema versions unless opts replace it.
func (l *Loader) Open(ctx context.Context, docID string, opts ...Option) (*Store, error) {
	doc, err := l.Load(ctx, docID)
	if err != nil {
		return nil, err
	}
	defaults := []Option{
		WithLogger(l.Logger),
		WithEngine(engine.New(engine.WithLogger(l.Logger), engine.WithSchema(l.Migrator))),
	}
	return New(ctx, doc, append(defaults, opts...)...)
}

// Import decodes the content of a record file, bypassing the repository.
func (l *Loader) Import(ctx context.Context, data []byte) (*document.Document, error) {
	recs, err := records.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc, _, err := l.Decode(ctx, recs)
	return doc, err
}
