package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-records/pipeline"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/panjf2000/ants/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Record is the capability set a stored type exposes to the store.
type Record interface {
	GetID() string
	SetID(id string)
	SetCreatedAt(t time.Time)
	MarkAsUpdated(now time.Time)
	MarkAsDeleted(now time.Time)
}

// Config wires a typed collection.
type Config[T Record] struct {
	Driver     Driver
	Collection string
	// NewRecord allocates an empty record to decode into.
	NewRecord    func() T
	Clock        types.Clock
	IDGen        types.IDGenerator
	Logger       types.Logger
	Metrics      *Metrics
	BatchWorkers int
}

// Collection stores records of one kind in one named collection.
type Collection[T Record] struct {
	driver    Driver
	name      string
	newRecord func() T
	clock     types.Clock
	idGen     types.IDGenerator
	logger    types.Logger
	metrics   *Metrics
	workers   int

	poolOnce sync.Once
	pool     *ants.Pool
}

// NewCollection validates cfg and fills in defaults.
func NewCollection[T Record](cfg Config[T]) (*Collection[T], error) {
	if cfg.Driver == nil {
		return nil, types.ErrMissingDriver
	}
	name := strings.TrimSpace(cfg.Collection)
	if name == "" {
		return nil, types.ErrMissingCollection
	}
	if cfg.NewRecord == nil {
		return nil, types.ErrMissingRecordFactory
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &Collection[T]{
		driver:    cfg.Driver,
		name:      name,
		newRecord: cfg.NewRecord,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
		metrics:   cfg.Metrics,
		workers:   workers,
	}, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Driver returns the underlying document driver.
func (c *Collection[T]) Driver() Driver { return c.driver }

// Insert assigns an identifier and creation time to rec and writes it. A
// duplicate key is resolved according to behavior.
func (c *Collection[T]) Insert(ctx context.Context, rec T, behavior types.InsertBehavior) (T, error) {
	var zero T
	if !behavior.Valid() {
		return zero, invalidBehaviorError(behavior.String())
	}
	started := time.Now()
	c.stamp(rec)

	err := c.driver.InsertOne(ctx, c.name, c.document(rec))
	if err == nil {
		c.metrics.observe(c.name, "insert", outcomeOK, started)
		return rec, nil
	}
	if !IsDuplicateKey(err) {
		c.metrics.observe(c.name, "insert", outcomeError, started)
		return zero, err
	}

	switch behavior {
	case types.InsertIgnoreIfExists:
		c.logger.Debug("go-records: insert ignored existing record", "collection", c.name, "id", rec.GetID())
		c.metrics.observe(c.name, "insert", outcomeIgnored, started)
		return rec, nil
	case types.InsertOverwrite:
		if _, err := c.driver.ReplaceOne(ctx, c.name, c.document(rec)); err != nil {
			c.metrics.observe(c.name, "insert", outcomeError, started)
			return zero, err
		}
		c.logger.Debug("go-records: insert overwrote existing record", "collection", c.name, "id", rec.GetID())
		c.metrics.observe(c.name, "insert", outcomeOverwrite, started)
		return rec, nil
	default:
		c.metrics.observe(c.name, "insert", outcomeConflict, started)
		return zero, err
	}
}

// InsertMany assigns identifiers and creation times to every record, then
// writes them in one batch. A duplicate key anywhere in the batch applies
// behavior to the whole batch.
func (c *Collection[T]) InsertMany(ctx context.Context, recs []T, behavior types.InsertBehavior) ([]T, error) {
	if !behavior.Valid() {
		return nil, invalidBehaviorError(behavior.String())
	}
	if len(recs) == 0 {
		return recs, nil
	}
	started := time.Now()
	if err := c.stampAll(recs); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, c.document(rec))
	}
	err := c.driver.InsertMany(ctx, c.name, docs)
	if err == nil {
		c.metrics.observe(c.name, "insert_many", outcomeOK, started)
		return recs, nil
	}
	if !IsDuplicateKey(err) {
		c.metrics.observe(c.name, "insert_many", outcomeError, started)
		return nil, err
	}

	switch behavior {
	case types.InsertIgnoreIfExists:
		c.logger.Debug("go-records: batch insert ignored existing records", "collection", c.name, "count", len(recs))
		c.metrics.observe(c.name, "insert_many", outcomeIgnored, started)
		return recs, nil
	case types.InsertOverwrite:
		for _, doc := range docs {
			if _, err := c.driver.ReplaceOne(ctx, c.name, doc); err != nil {
				c.metrics.observe(c.name, "insert_many", outcomeError, started)
				return nil, err
			}
		}
		c.logger.Info("go-records: batch insert overwrote records", "collection", c.name, "count", len(recs))
		c.metrics.observe(c.name, "insert_many", outcomeOverwrite, started)
		return recs, nil
	default:
		c.metrics.observe(c.name, "insert_many", outcomeConflict, started)
		return nil, err
	}
}

// Update stamps the modification time and replaces the stored record. A
// record that no longer exists is left absent.
func (c *Collection[T]) Update(ctx context.Context, rec T) (T, error) {
	var zero T
	started := time.Now()
	rec.MarkAsUpdated(c.now())
	res, err := c.driver.ReplaceOne(ctx, c.name, c.document(rec))
	if err != nil {
		c.metrics.observe(c.name, "update", outcomeError, started)
		return zero, err
	}
	outcome := outcomeOK
	if res.Matched == 0 {
		outcome = outcomeNoop
	}
	c.metrics.observe(c.name, "update", outcome, started)
	return rec, nil
}

// Delete marks rec as deleted and updated, then persists the flag or removes
// the record. It reports whether a stored record was affected. The in-memory
// markers are applied whatever the outcome.
func (c *Collection[T]) Delete(ctx context.Context, rec T, behavior types.DeleteBehavior) (bool, error) {
	started := time.Now()
	now := c.now()
	rec.MarkAsDeleted(now)
	rec.MarkAsUpdated(now)

	var (
		res WriteResult
		err error
		ok  bool
	)
	switch behavior {
	case types.DeleteSoft:
		res, err = c.driver.ReplaceOne(ctx, c.name, c.document(rec))
		ok = res.Modified > 0
	case types.DeleteHard:
		res, err = c.driver.DeleteOne(ctx, c.name, rec.GetID())
		ok = res.Deleted > 0
	default:
		return false, nil
	}
	op := "delete_" + behavior.String()
	if err != nil {
		c.metrics.observe(c.name, op, outcomeError, started)
		return false, err
	}
	outcome := outcomeOK
	if !ok {
		outcome = outcomeNoop
	}
	c.metrics.observe(c.name, op, outcome, started)
	return ok, nil
}

// FindByID loads the record stored under id.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if strings.TrimSpace(id) == "" {
		return zero, NotFoundError(c.name, id)
	}
	raw, err := c.driver.FindOne(ctx, c.name, id)
	if err != nil {
		return zero, err
	}
	return c.Decode(raw)
}

// Aggregate runs p and decodes every resulting document as T.
func (c *Collection[T]) Aggregate(ctx context.Context, p pipeline.Pipeline, opts AggregateOptions) ([]T, error) {
	raws, err := c.driver.Aggregate(ctx, c.name, p, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		rec, err := c.Decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Decode unmarshals a stored document into a new record.
func (c *Collection[T]) Decode(raw bson.Raw) (T, error) {
	rec := c.newRecord()
	if err := bson.Unmarshal(raw, rec); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (c *Collection[T]) document(rec T) Document {
	return Document{ID: rec.GetID(), Value: rec}
}

func (c *Collection[T]) stamp(rec T) {
	rec.SetID(c.idGen.UUID().String())
	rec.SetCreatedAt(c.now())
}

// now truncates to the millisecond precision documents are stored with.
func (c *Collection[T]) now() time.Time {
	return c.clock.Now().UTC().Truncate(time.Millisecond)
}
