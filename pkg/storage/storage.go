// Package storage persists infograph record sets.
//
// A [Repository] loads and saves the flat records of one document (see
// package records). It knows nothing about pages or widgets: assembling,
// migrating and validating the records is the loader's job.
//
// # Backends
//
//   - [File]: one JSON file per document in a directory
//   - [Redis]: one hash per document, field per record path
//   - [Mongo]: one collection row per record
//
// [Open] builds a backend from [Options] and wraps it so that every load
// and save is reported to the storage observability hooks. Network
// backends retry connection failures with [cache.DefaultBackoff] unless
// [Options.Retry] sets another policy.
package storage

import (
	"context"
	"time"

	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/observability"
	"github.com/devtoc/infograph/pkg/records"
)

// Repository stores the records of documents by document id.
//
// Load returns an error with code DOCUMENT_NOT_FOUND for unknown ids. Save
// replaces the whole record set of a document.
type Repository interface {
	Load(ctx context.Context, docID string) ([]records.Record, error)
	Save(ctx context.Context, docID string, recs []records.Record) error
	Delete(ctx context.Context, docID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	Dir string // file

	RedisURL    string // redis, e.g. redis://localhost:6379/0
	RedisPrefix string

	MongoURI      string // mongo
	MongoDatabase string

	// Retry overrides the retry policy of network backends. The file
	// backend never retries.
	Retry *cache.Backoff
}

// Open creates the repository described by opts.
func Open(ctx context.Context, opts Options) (Repository, error) {
	var (
		repo Repository
		err  error
	)
	switch opts.Backend {
	case BackendFile, "":
		repo, err = NewFile(opts.Dir)
	case BackendRedis:
		repo, err = NewRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendMongo:
		repo, err = NewMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	backend := opts.Backend
	if backend == "" {
		backend = BackendFile
	}
	var retry cache.Backoff
	if backend != BackendFile {
		retry = cache.DefaultBackoff
		if opts.Retry != nil {
			retry = *opts.Retry
		}
	}
	return Instrument(backend, repo, retry), nil
}

// Instrument wraps repo so that loads and saves are reported to
// observability.Storage(). Retryable errors are retried under the retry
// policy; the zero Backoff tries once.
func Instrument(backend string, repo Repository, retry cache.Backoff) Repository {
	return &instrumented{backend: backend, inner: repo, retry: retry}
}

type instrumented struct {
	backend string
	inner   Repository
	retry   cache.Backoff
}

func (r *instrumented) do(ctx context.Context, fn func() error) error {
	return r.retry.Retry(ctx, fn)
}

func (r *instrumented) Load(ctx context.Context, docID string) ([]records.Record, error) {
	start := time.Now()
	var recs []records.Record
	err := r.do(ctx, func() error {
		var err error
		recs, err = r.inner.Load(ctx, docID)
		return err
	})
	observability.Storage().OnLoad(ctx, r.backend, docID, len(recs), time.Since(start), err)
	return recs, err
}

func (r *instrumented) Save(ctx context.Context, docID string, recs []records.Record) error {
	start := time.Now()
	err := r.do(ctx, func() error { return r.inner.Save(ctx, docID, recs) })
	observability.Storage().OnSave(ctx, r.backend, docID, len(recs), time.Since(start), err)
	return err
}

func (r *instrumented) Delete(ctx context.Context, docID string) error {
	return r.do(ctx, func() error { return r.inner.Delete(ctx, docID) })
}

func (r *instrumented) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.do(ctx, func() error {
		var err error
		ids, err = r.inner.List(ctx)
		return err
	})
	return ids, err
}

func (r *instrumented) Close() error { return r.inner.Close() }

func notFound(docID string) error {
	return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", docID)
}

// checkRecords rejects record sets that belong to another document.
func checkRecords(docID string, recs []records.Record) error {
	if err := errors.ValidateDocumentID(docID); err != nil {
		return err
	}
	for _, r := range recs {
		id, _, _, err := records.ParsePath(r.Path)
		if err != nil {
			return err
		}
		if id != docID {
			return errors.New(errors.ErrCodeInvalidRecord, "record %s does not belong to document %s", r.Path, docID)
		}
	}
	return nil
}

// storageErr wraps backend failures. Retryable causes stay retryable
// through Unwrap.
func storageErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeStorage, err, format, args...)
}
