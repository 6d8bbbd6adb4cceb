// Package mongostore implements store.Driver on the MongoDB Go driver.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-records/pipeline"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	defaultMaxPoolSize     = 100
	defaultSelectTimeout   = 10 * time.Second
	defaultConnectDeadline = 15 * time.Second
)

// ConnectConfig describes how to reach a MongoDB deployment.
type ConnectConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	ServerSelectionTimeout time.Duration
	Logger                 types.Logger
}

// Connect dials the deployment, verifies it answers a ping and returns a
// driver bound to cfg.Database.
func Connect(ctx context.Context, cfg ConnectConfig) (*Driver, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errors.New("mongostore: uri required")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, errors.New("mongostore: database required")
	}
	poolSize := cfg.MaxPoolSize
	if poolSize == 0 {
		poolSize = defaultMaxPoolSize
	}
	selectTimeout := cfg.ServerSelectionTimeout
	if selectTimeout <= 0 {
		selectTimeout = defaultSelectTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(poolSize).
		SetServerSelectionTimeout(selectTimeout)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectDeadline)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	driver, err := New(Config{Database: client.Database(cfg.Database), Logger: cfg.Logger})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	driver.owned = true
	return driver, nil
}

// Config wires a driver over an existing database handle.
type Config struct {
	Database *mongo.Database
	Logger   types.Logger
}

// Driver implements store.Driver.
type Driver struct {
	db     *mongo.Database
	logger types.Logger
	owned  bool
}

var _ store.Driver = (*Driver)(nil)

// New constructs a driver over cfg.Database.
func New(cfg Config) (*Driver, error) {
	if cfg.Database == nil {
		return nil, errors.New("mongostore: database required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Driver{db: cfg.Database, logger: logger}, nil
}

// Database returns the bound database handle.
func (d *Driver) Database() *mongo.Database { return d.db }

// Close disconnects the client when the driver created it.
func (d *Driver) Close(ctx context.Context) error {
	if !d.owned {
		return nil
	}
	return d.db.Client().Disconnect(ctx)
}

// InsertOne implements store.Driver.
func (d *Driver) InsertOne(ctx context.Context, collection string, doc store.Document) error {
	_, err := d.db.Collection(collection).InsertOne(ctx, doc.Value)
	return translate(err, collection)
}

// InsertMany implements store.Driver. The write is unordered so documents
// that do not collide are still stored.
func (d *Driver) InsertMany(ctx context.Context, collection string, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	values := make([]any, 0, len(docs))
	for _, doc := range docs {
		values = append(values, doc.Value)
	}
	_, err := d.db.Collection(collection).InsertMany(ctx, values, options.InsertMany().SetOrdered(false))
	return translate(err, collection)
}

// ReplaceOne implements store.Driver.
func (d *Driver) ReplaceOne(ctx context.Context, collection string, doc store.Document) (store.WriteResult, error) {
	res, err := d.db.Collection(collection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc.Value)
	if err != nil {
		return store.WriteResult{}, translate(err, collection)
	}
	return store.WriteResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// DeleteOne implements store.Driver.
func (d *Driver) DeleteOne(ctx context.Context, collection, id string) (store.WriteResult, error) {
	res, err := d.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return store.WriteResult{}, err
	}
	return store.WriteResult{Matched: res.DeletedCount, Deleted: res.DeletedCount}, nil
}

// FindOne implements store.Driver.
func (d *Driver) FindOne(ctx context.Context, collection, id string) (bson.Raw, error) {
	raw, err := d.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.NotFoundError(collection, id)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Aggregate implements store.Driver.
func (d *Driver) Aggregate(ctx context.Context, collection string, p pipeline.Pipeline, opts store.AggregateOptions) ([]bson.Raw, error) {
	stages, err := RenderPipeline(p)
	if err != nil {
		return nil, err
	}
	cursor, err := d.db.Collection(collection).Aggregate(ctx, stages, options.Aggregate().SetAllowDiskUse(opts.AllowDiskUse))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]bson.Raw, 0)
	for cursor.Next(ctx) {
		doc := make(bson.Raw, len(cursor.Current))
		copy(doc, cursor.Current)
		out = append(out, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureIndexes creates the created_at index keyset pagination sorts on.
func (d *Driver) EnsureIndexes(ctx context.Context, collection string) error {
	_, err := d.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: pipeline.CreatedAtField, Value: -1}},
	})
	if err != nil {
		return err
	}
	d.logger.Debug("mongostore: indexes ready", "collection", collection)
	return nil
}

func translate(err error, collection string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.DuplicateKeyError(err, collection)
	}
	return err
}
