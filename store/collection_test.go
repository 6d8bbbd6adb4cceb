package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-records/adapter/sqlitestore"
	"github.com/goliatone/go-records/filter"
	"github.com/goliatone/go-records/pipeline"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type widget struct {
	types.Aggregate `bson:",inline"`

	Name  string `bson:"name"`
	Stock int    `bson:"stock"`
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedIDs struct{ id uuid.UUID }

func (g fixedIDs) UUID() uuid.UUID { return g.id }

var testNow = time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)

func newDriver(t *testing.T) store.Driver {
	t.Helper()
	db, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	driver, err := sqlitestore.New(sqlitestore.Config{DB: db})
	require.NoError(t, err)
	return driver
}

func newWidgets(t *testing.T, driver store.Driver, ids types.IDGenerator) *store.AggregateCollection[*widget] {
	t.Helper()
	coll, err := store.NewAggregateCollection(store.Config[*widget]{
		Driver:     driver,
		Collection: "widgets",
		NewRecord:  func() *widget { return &widget{} },
		Clock:      fixedClock{t: testNow},
		IDGen:      ids,
	})
	require.NoError(t, err)
	return coll
}

func TestNewCollectionValidatesConfig(t *testing.T) {
	_, err := store.NewCollection(store.Config[*widget]{})
	require.ErrorIs(t, err, types.ErrMissingDriver)

	driver := newDriver(t)
	_, err = store.NewCollection(store.Config[*widget]{Driver: driver, Collection: "  "})
	require.ErrorIs(t, err, types.ErrMissingCollection)

	_, err = store.NewCollection(store.Config[*widget]{Driver: driver, Collection: "widgets"})
	require.ErrorIs(t, err, types.ErrMissingRecordFactory)
}

func TestInsertStampsAndFindReturnsEqualRecord(t *testing.T) {
	ctx := context.Background()
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})

	rec, err := coll.Insert(ctx, &widget{Name: "gear", Stock: 4}, types.InsertFailIfExists)
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	_, err = uuid.Parse(rec.ID)
	require.NoError(t, err)
	require.Equal(t, testNow.Truncate(time.Millisecond), rec.CreatedAt)

	found, err := coll.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec, found)
}

func TestInsertDuplicateBehaviors(t *testing.T) {
	ctx := context.Background()
	ids := fixedIDs{id: uuid.MustParse("6f1b8f4e-2a55-4c63-9a59-8d0ab0f5d7a1")}
	coll := newWidgets(t, newDriver(t), ids)

	first, err := coll.Insert(ctx, &widget{Name: "original"}, types.InsertFailIfExists)
	require.NoError(t, err)

	_, err = coll.Insert(ctx, &widget{Name: "fails"}, types.InsertFailIfExists)
	require.Error(t, err)
	require.True(t, store.IsDuplicateKey(err))

	ignored, err := coll.Insert(ctx, &widget{Name: "ignored"}, types.InsertIgnoreIfExists)
	require.NoError(t, err)
	require.Equal(t, "ignored", ignored.Name)
	stored, err := coll.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "original", stored.Name)

	overwritten, err := coll.Insert(ctx, &widget{Name: "replacement"}, types.InsertOverwrite)
	require.NoError(t, err)
	stored, err = coll.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, overwritten, stored)
	require.Equal(t, "replacement", stored.Name)
}

func TestInsertRejectsUnknownBehavior(t *testing.T) {
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})
	_, err := coll.Insert(context.Background(), &widget{}, types.InsertBehavior(9))
	require.Error(t, err)

	_, err = coll.InsertMany(context.Background(), []*widget{{}}, types.InsertBehavior(-1))
	require.Error(t, err)
}

func TestInsertManyStampsLargeBatches(t *testing.T) {
	ctx := context.Background()
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})

	recs := make([]*widget, 0, 150)
	for i := 0; i < 150; i++ {
		recs = append(recs, &widget{Name: fmt.Sprintf("w%03d", i), Stock: i})
	}
	out, err := coll.InsertMany(ctx, recs, types.InsertFailIfExists)
	require.NoError(t, err)
	require.Len(t, out, 150)

	seen := make(map[string]struct{}, len(out))
	for _, rec := range out {
		require.NotEmpty(t, rec.ID)
		require.Equal(t, testNow.Truncate(time.Millisecond), rec.CreatedAt)
		seen[rec.ID] = struct{}{}
	}
	require.Len(t, seen, 150)

	stored, err := coll.Aggregate(ctx, pipeline.New().Match(filter.Gte("stock", 100)), store.AggregateOptions{})
	require.NoError(t, err)
	require.Len(t, stored, 50)
}

func TestInsertManyDuplicateBehaviors(t *testing.T) {
	ctx := context.Background()
	ids := fixedIDs{id: uuid.MustParse("0d9c7c55-1f0e-4d0a-8d7e-4a3c1b9e2f10")}
	coll := newWidgets(t, newDriver(t), ids)

	_, err := coll.Insert(ctx, &widget{Name: "original"}, types.InsertFailIfExists)
	require.NoError(t, err)

	_, err = coll.InsertMany(ctx, []*widget{{Name: "batch"}}, types.InsertFailIfExists)
	require.True(t, store.IsDuplicateKey(err))

	out, err := coll.InsertMany(ctx, []*widget{{Name: "batch"}}, types.InsertIgnoreIfExists)
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = coll.InsertMany(ctx, []*widget{{Name: "batch"}}, types.InsertOverwrite)
	require.NoError(t, err)
	stored, err := coll.FindByID(ctx, out[0].ID)
	require.NoError(t, err)
	require.Equal(t, "batch", stored.Name)
}

func TestInsertManyEmptyBatch(t *testing.T) {
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})
	out, err := coll.InsertMany(context.Background(), nil, types.InsertFailIfExists)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestUpdateStampsModificationTime(t *testing.T) {
	ctx := context.Background()
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})

	rec, err := coll.Insert(ctx, &widget{Name: "gear"}, types.InsertFailIfExists)
	require.NoError(t, err)
	require.Nil(t, rec.UpdatedAt)

	rec.Stock = 12
	updated, err := coll.Update(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, updated.UpdatedAt)

	stored, err := coll.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, 12, stored.Stock)
	require.Equal(t, updated.UpdatedAt, stored.UpdatedAt)

	ghost := &widget{Name: "ghost"}
	ghost.ID = "missing"
	_, err = coll.Update(ctx, ghost)
	require.NoError(t, err)
	_, err = coll.FindByID(ctx, "missing")
	require.True(t, store.IsNotFound(err))
}

func TestSoftDeleteHidesFromFindActive(t *testing.T) {
	ctx := context.Background()
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})

	rec, err := coll.Insert(ctx, &widget{Name: "gear"}, types.InsertFailIfExists)
	require.NoError(t, err)

	active, err := coll.FindActiveByID(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, active.Deleted())

	ok, err := coll.Delete(ctx, rec, types.DeleteSoft)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.IsDeleted)
	require.NotNil(t, rec.DeletedAt)
	require.NotNil(t, rec.UpdatedAt)

	stored, err := coll.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDeleted)

	_, err = coll.FindActiveByID(ctx, rec.ID)
	require.True(t, store.IsNotFound(err))
}

func TestHardDeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})

	rec, err := coll.Insert(ctx, &widget{Name: "gear"}, types.InsertFailIfExists)
	require.NoError(t, err)

	ok, err := coll.Delete(ctx, rec, types.DeleteHard)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = coll.FindByID(ctx, rec.ID)
	require.True(t, store.IsNotFound(err))

	ok, err = coll.Delete(ctx, rec, types.DeleteHard)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteUnknownBehaviorReportsFalse(t *testing.T) {
	ctx := context.Background()
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})

	rec, err := coll.Insert(ctx, &widget{Name: "gear"}, types.InsertFailIfExists)
	require.NoError(t, err)

	ok, err := coll.Delete(ctx, rec, types.DeleteBehavior(7))
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, rec.IsDeleted)

	stored, err := coll.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, stored.IsDeleted)
}

func TestFindByIDBlankIsNotFound(t *testing.T) {
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})
	_, err := coll.FindByID(context.Background(), " ")
	require.True(t, store.IsNotFound(err))
}

func TestEntityCollection(t *testing.T) {
	ctx := context.Background()
	coll, err := store.NewEntityCollection(store.Config[*widget]{
		Driver:     newDriver(t),
		Collection: "entities",
		NewRecord:  func() *widget { return &widget{} },
	})
	require.NoError(t, err)
	require.Equal(t, "entities", coll.Name())

	rec, err := coll.Insert(ctx, &widget{Name: "plain"}, types.InsertFailIfExists)
	require.NoError(t, err)
	found, err := coll.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "plain", found.Name)
}

func countWidgets(t *testing.T, coll *store.AggregateCollection[*widget]) int {
	t.Helper()
	items, err := coll.Aggregate(context.Background(), pipeline.New(), store.AggregateOptions{})
	require.NoError(t, err)
	return len(items)
}

func TestCancelledContextAbortsWrites(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	fresh := newWidgets(t, newDriver(t), types.UUIDGenerator{})
	_, err := fresh.Insert(cancelled, &widget{Name: "early"}, types.InsertFailIfExists)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, countWidgets(t, fresh))

	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})
	t.Cleanup(coll.Close)
	_, err = coll.Insert(context.Background(), &widget{Name: "seed"}, types.InsertFailIfExists)
	require.NoError(t, err)

	_, err = coll.Insert(cancelled, &widget{Name: "late"}, types.InsertFailIfExists)
	require.ErrorIs(t, err, context.Canceled)

	batch := make([]*widget, 0, 100)
	for i := 0; i < 100; i++ {
		batch = append(batch, &widget{Name: fmt.Sprintf("bulk-%d", i)})
	}
	_, err = coll.InsertMany(cancelled, batch, types.InsertFailIfExists)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, countWidgets(t, coll))
}

func TestCancelledContextAbortsAggregate(t *testing.T) {
	coll := newWidgets(t, newDriver(t), types.UUIDGenerator{})
	_, err := coll.Insert(context.Background(), &widget{Name: "seed"}, types.InsertFailIfExists)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	items, err := coll.Aggregate(cancelled, pipeline.New().Match(filter.Eq("name", "seed")), store.AggregateOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, items)
}
