package activity

import (
	"context"
	"errors"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-records/cursor"
	"github.com/goliatone/go-records/pipeline"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// RepositoryConfig wires the activity repository.
type RepositoryConfig struct {
	Driver       store.Driver
	Collection   string
	Clock        types.Clock
	IDGen        types.IDGenerator
	Logger       types.Logger
	Metrics      *store.Metrics
	BatchWorkers int
	Masker       *masker.Masker
}

// Repository persists activities and exposes the feed, count and cursor
// reads used by dashboards.
type Repository struct {
	*store.AggregateCollection[*types.Activity]
	masker *masker.Masker
	logger types.Logger
}

// NewRepository constructs a repository over cfg.Driver.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Driver == nil {
		return nil, types.ErrMissingDriver
	}
	name := cfg.Collection
	if name == "" {
		name = CollectionName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	coll, err := store.NewAggregateCollection(store.Config[*types.Activity]{
		Driver:       cfg.Driver,
		Collection:   name,
		NewRecord:    func() *types.Activity { return &types.Activity{} },
		Clock:        cfg.Clock,
		IDGen:        cfg.IDGen,
		Logger:       logger,
		Metrics:      cfg.Metrics,
		BatchWorkers: cfg.BatchWorkers,
	})
	if err != nil {
		return nil, err
	}
	return &Repository{
		AggregateCollection: coll,
		masker:              cfg.Masker,
		logger:              logger,
	}, nil
}

var _ types.ActivityRepository = (*Repository)(nil)

// Log sanitizes the activity metadata and inserts it, failing on a
// duplicate identifier.
func (r *Repository) Log(ctx context.Context, activity *types.Activity) (*types.Activity, error) {
	if activity == nil {
		return nil, types.ErrActivityRequired
	}
	SanitizeActivity(r.masker, activity)
	logged, err := r.Insert(ctx, activity, types.InsertFailIfExists)
	if err != nil {
		r.logger.Error("activity: log failed", err, "action", activity.Action)
		return nil, err
	}
	r.logger.Debug("activity: logged", "id", logged.ID, "action", logged.Action)
	return logged, nil
}

// GetActivities returns the page of activities selected by filters.
func (r *Repository) GetActivities(ctx context.Context, filters *types.ActivityFilters) ([]*types.Activity, error) {
	if filters == nil {
		filters = &types.ActivityFilters{}
	}
	p := FilterStage(pipeline.New(), filters)
	p = pipeline.Paginate(p, filters.Pagination)
	p = pipeline.Sort(p, filters.Sort)
	return r.Aggregate(ctx, p, store.AggregateOptions{AllowDiskUse: true})
}

// Count returns how many activities match filters. Pagination, sort and
// cursor settings are ignored.
func (r *Repository) Count(ctx context.Context, filters *types.ActivityFilters) (int64, error) {
	if filters == nil {
		filters = &types.ActivityFilters{}
	}
	p := FilterStage(pipeline.New(), filters).Count(pipeline.CountField)
	raws, err := r.Driver().Aggregate(ctx, r.Name(), p, store.AggregateOptions{})
	if err != nil {
		return 0, err
	}
	if len(raws) == 0 {
		return 0, nil
	}
	return countValue(raws[0])
}

// GetActivitiesByCursor returns the activities created strictly before the
// cursor, newest first. NextCursor is set when older activities remain.
func (r *Repository) GetActivitiesByCursor(ctx context.Context, filters *types.ActivityFilters) (types.ActivityCursorPage, error) {
	if filters == nil {
		filters = &types.ActivityFilters{}
	}
	page := types.CursorFilters{}
	if filters.Cursor != nil {
		page = *filters.Cursor
	}
	size := page.PageSize()

	p, err := pipeline.CursorLookahead(FilterStage(pipeline.New(), filters), &page)
	if err != nil {
		return types.ActivityCursorPage{}, err
	}
	items, err := r.Aggregate(ctx, p, store.AggregateOptions{AllowDiskUse: true})
	if err != nil {
		return types.ActivityCursorPage{}, err
	}

	out := types.ActivityCursorPage{Items: items}
	if int64(len(items)) > size {
		out.Items = items[:size]
		out.HasMore = true
		out.NextCursor = cursor.Encode(out.Items[len(out.Items)-1].CreatedAt)
	}
	return out, nil
}

func countValue(raw bson.Raw) (int64, error) {
	value, err := raw.LookupErr(pipeline.CountField)
	if err != nil {
		return 0, err
	}
	switch value.Type {
	case bson.TypeInt32:
		return int64(value.Int32()), nil
	case bson.TypeInt64:
		return value.Int64(), nil
	case bson.TypeDouble:
		return int64(value.Double()), nil
	default:
		return 0, errors.New("activity: unexpected count type " + value.Type.String())
	}
}
