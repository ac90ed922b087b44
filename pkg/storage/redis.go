package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/devtoc/infograph/pkg/cache"
	ierrors "github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/records"
)

// DefaultRedisPrefix namespaces the keys written by [Redis].
const DefaultRedisPrefix = "infograph:"

// Redis stores each document as a hash keyed by record path. A set holds
// the ids of all stored documents.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis connects to url and pings the server.
func NewRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeInvalidConfig, err, "redis url")
	}
	r := NewRedisFromClient(redis.NewClient(opts), prefix)
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return nil, storageErr(retryable(err), "ping redis")
	}
	return r, nil
}

// NewRedisFromClient wraps an existing client. An empty prefix selects
// [DefaultRedisPrefix].
func NewRedisFromClient(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) docKey(docID string) string { return r.prefix + "doc:" + docID }
func (r *Redis) indexKey() string           { return r.prefix + "docs" }

func (r *Redis) Load(ctx context.Context, docID string) ([]records.Record, error) {
	if err := ierrors.ValidateDocumentID(docID); err != nil {
		return nil, err
	}
	fields, err := r.client.HGetAll(ctx, r.docKey(docID)).Result()
	if err != nil {
		return nil, storageErr(retryable(err), "load %s", docID)
	}
	if len(fields) == 0 {
		return nil, notFound(docID)
	}
	out := make([]records.Record, 0, len(fields))
	for path, raw := range fields {
		var rec records.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, ierrors.Wrap(ierrors.ErrCodeInvalidRecord, err, "record %s", path)
		}
		rec.Path = path
		out = append(out, rec)
	}
	slices.SortFunc(out, comparePath)
	return out, nil
}

// Save replaces the document hash in a single MULTI/EXEC transaction.
func (r *Redis) Save(ctx context.Context, docID string, recs []records.Record) error {
	if err := checkRecords(docID, recs); err != nil {
		return err
	}
	values := make([]any, 0, 2*len(recs))
	for _, rec := range recs {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", rec.Path, err)
		}
		values = append(values, rec.Path, string(raw))
	}
	key := r.docKey(docID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(values) > 0 {
			p.HSet(ctx, key, values...)
			p.SAdd(ctx, r.indexKey(), docID)
		} else {
			p.SRem(ctx, r.indexKey(), docID)
		}
		return nil
	})
	return storageErr(retryable(err), "save %s", docID)
}

func (r *Redis) Delete(ctx context.Context, docID string) error {
	if err := ierrors.ValidateDocumentID(docID); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, r.docKey(docID))
		p.SRem(ctx, r.indexKey(), docID)
		return nil
	})
	if err != nil {
		return storageErr(retryable(err), "delete %s", docID)
	}
	if del.Val() == 0 {
		return notFound(docID)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, storageErr(retryable(err), "list documents")
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *Redis) Close() error { return r.client.Close() }

// retryable marks connection failures for [cache.Backoff].
func retryable(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return err
}

func comparePath(a, b records.Record) int {
	switch {
	case a.Path < b.Path:
		return -1
	case a.Path > b.Path:
		return 1
	}
	return 0
}

var _ Repository = (*Redis)(nil)
