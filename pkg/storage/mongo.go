package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devtoc/infograph/pkg/cache"
	ierrors "github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/records"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "infograph"

const mongoCollection = "records"

// mongoRecord is one row of the records collection. Data keeps the raw
// JSON text so that loading returns exactly what was saved.
type mongoRecord struct {
	Path     string `bson:"_id"`
	Document string `bson:"document"`
	ID       string `bson:"id"`
	Data     string `bson:"data"`
}

// Mongo stores one row per record, indexed by document id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to uri, pings the server and ensures the document index.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if uri == "" {
		return nil, ierrors.New(ierrors.ErrCodeInvalidConfig, "mongo storage needs a uri")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageErr(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr(mongoRetryable(err), "ping mongo")
	}
	m := &Mongo{client: client, coll: client.Database(database).Collection(mongoCollection)}
	_, err = m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "document", Value: 1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr(err, "create index")
	}
	return m, nil
}

func (m *Mongo) Load(ctx context.Context, docID string) ([]records.Record, error) {
	if err := ierrors.ValidateDocumentID(docID); err != nil {
		return nil, err
	}
	cur, err := m.coll.Find(ctx, bson.D{{Key: "document", Value: docID}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageErr(mongoRetryable(err), "load %s", docID)
	}
	var rows []mongoRecord
	if err := cur.All(ctx, &rows); err != nil {
		return nil, storageErr(mongoRetryable(err), "load %s", docID)
	}
	if len(rows) == 0 {
		return nil, notFound(docID)
	}
	out := make([]records.Record, len(rows))
	for i, row := range rows {
		if !json.Valid([]byte(row.Data)) {
			return nil, ierrors.New(ierrors.ErrCodeInvalidRecord, "record %s holds invalid JSON", row.Path)
		}
		out[i] = records.Record{Path: row.Path, ID: row.ID, Data: json.RawMessage(row.Data)}
	}
	return out, nil
}

// Save deletes the previous rows of the document and inserts the new ones.
// Without a replica set the two steps are not atomic; a failed insert
// leaves the document partially written and the next Save repairs it.
func (m *Mongo) Save(ctx context.Context, docID string, recs []records.Record) error {
	if err := checkRecords(docID, recs); err != nil {
		return err
	}
	if _, err := m.coll.DeleteMany(ctx, bson.D{{Key: "document", Value: docID}}); err != nil {
		return storageErr(mongoRetryable(err), "save %s", docID)
	}
	if len(recs) == 0 {
		return nil
	}
	rows := make([]any, len(recs))
	for i, r := range recs {
		rows[i] = mongoRecord{Path: r.Path, Document: docID, ID: r.ID, Data: string(r.Data)}
	}
	_, err := m.coll.InsertMany(ctx, rows)
	return storageErr(mongoRetryable(err), "save %s", docID)
}

func (m *Mongo) Delete(ctx context.Context, docID string) error {
	if err := ierrors.ValidateDocumentID(docID); err != nil {
		return err
	}
	res, err := m.coll.DeleteMany(ctx, bson.D{{Key: "document", Value: docID}})
	if err != nil {
		return storageErr(mongoRetryable(err), "delete %s", docID)
	}
	if res.DeletedCount == 0 {
		return notFound(docID)
	}
	return nil
}

func (m *Mongo) List(ctx context.Context) ([]string, error) {
	vals, err := m.coll.Distinct(ctx, "document", bson.D{})
	if err != nil {
		return nil, storageErr(mongoRetryable(err), "list documents")
	}
	ids := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

// mongoRetryable marks driver-level network failures as retryable.
func mongoRetryable(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return retryable(err)
}

var _ Repository = (*Mongo)(nil)
