package store

import (
	"context"
)

// AggregateRecord is a Record that exposes its soft delete state.
type AggregateRecord interface {
	Record
	Deleted() bool
}

// EntityCollection stores plain entities.
type EntityCollection[T Record] struct {
	*Collection[T]
}

// NewEntityCollection builds an entity store from cfg.
func NewEntityCollection[T Record](cfg Config[T]) (*EntityCollection[T], error) {
	coll, err := NewCollection(cfg)
	if err != nil {
		return nil, err
	}
	return &EntityCollection[T]{Collection: coll}, nil
}

// AggregateCollection stores aggregates whose soft deleted state is honoured
// by FindActiveByID.
type AggregateCollection[T AggregateRecord] struct {
	*Collection[T]
}

// NewAggregateCollection builds an aggregate store from cfg.
func NewAggregateCollection[T AggregateRecord](cfg Config[T]) (*AggregateCollection[T], error) {
	coll, err := NewCollection(cfg)
	if err != nil {
		return nil, err
	}
	return &AggregateCollection[T]{Collection: coll}, nil
}

// FindActiveByID loads the aggregate stored under id unless it was soft
// deleted.
func (c *AggregateCollection[T]) FindActiveByID(ctx context.Context, id string) (T, error) {
	rec, err := c.FindByID(ctx, id)
	if err != nil {
		return rec, err
	}
	if rec.Deleted() {
		var zero T
		return zero, NotFoundError(c.name, id)
	}
	return rec, nil
}
