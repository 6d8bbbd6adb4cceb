// Package store implements typed record stores over a document driver.
// A Driver is shared per database; Collection values add identity,
// timestamp and conflict handling for one record kind.
package store

import (
	"context"

	"github.com/goliatone/go-records/pipeline"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Document is a value addressed by its identifier. Value must marshal to a
// BSON document whose _id equals ID.
type Document struct {
	ID    string
	Value any
}

// WriteResult reports how many stored documents a write touched.
type WriteResult struct {
	Matched  int64
	Modified int64
	Deleted  int64
}

// AggregateOptions tunes pipeline execution.
type AggregateOptions struct {
	AllowDiskUse bool
}

// Driver is the low level document client. Implementations report duplicate
// identifiers with an error for which IsDuplicateKey is true and return an
// error for which IsNotFound is true when FindOne has no match.
type Driver interface {
	InsertOne(ctx context.Context, collection string, doc Document) error
	// InsertMany writes every document that does not collide and reports a
	// duplicate key error when at least one did.
	InsertMany(ctx context.Context, collection string, docs []Document) error
	ReplaceOne(ctx context.Context, collection string, doc Document) (WriteResult, error)
	DeleteOne(ctx context.Context, collection, id string) (WriteResult, error)
	FindOne(ctx context.Context, collection, id string) (bson.Raw, error)
	Aggregate(ctx context.Context, collection string, p pipeline.Pipeline, opts AggregateOptions) ([]bson.Raw, error)
}
