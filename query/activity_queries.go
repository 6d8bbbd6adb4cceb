package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-records/activity"
	"github.com/goliatone/go-records/pkg/authctx"
	"github.com/goliatone/go-records/pkg/types"
)

// ActivityQueryOption customizes the activity queries.
type ActivityQueryOption func(*activityQueryConfig)

type activityQueryConfig struct {
	scoped    bool
	scopeOpts []activity.ScopeOption
}

// WithActorScope narrows every query to what the actor stored on the request
// context may read. Requests without an actor are rejected.
func WithActorScope(opts ...activity.ScopeOption) ActivityQueryOption {
	return func(cfg *activityQueryConfig) {
		cfg.scoped = true
		cfg.scopeOpts = append(cfg.scopeOpts, opts...)
	}
}

func newActivityQueryConfig(opts []ActivityQueryOption) activityQueryConfig {
	cfg := activityQueryConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg activityQueryConfig) apply(ctx context.Context, filters types.ActivityFilters) (types.ActivityFilters, error) {
	if err := filters.Validate(); err != nil {
		return types.ActivityFilters{}, err
	}
	if !cfg.scoped {
		return filters, nil
	}
	actor, err := authctx.ResolveActorContext(ctx)
	if err != nil {
		return types.ActivityFilters{}, err
	}
	return activity.ScopeFilters(actor, filters, cfg.scopeOpts...)
}

// ActivityFeedQuery renders offset paginated activity feeds for dashboards.
type ActivityFeedQuery struct {
	repo types.ActivityReader
	cfg  activityQueryConfig
}

// NewActivityFeedQuery constructs the feed query helper.
func NewActivityFeedQuery(repo types.ActivityReader, opts ...ActivityQueryOption) *ActivityFeedQuery {
	return &ActivityFeedQuery{repo: repo, cfg: newActivityQueryConfig(opts)}
}

var _ gocommand.Querier[types.ActivityFilters, []*types.Activity] = (*ActivityFeedQuery)(nil)

// Query fetches a page of activities via the injected repository.
func (q *ActivityFeedQuery) Query(ctx context.Context, filters types.ActivityFilters) ([]*types.Activity, error) {
	if q.repo == nil {
		return nil, types.ErrMissingActivityRepository
	}
	filters, err := q.cfg.apply(ctx, filters)
	if err != nil {
		return nil, err
	}
	return q.repo.GetActivities(ctx, &filters)
}

// ActivityCountQuery counts the activities matching a filter.
type ActivityCountQuery struct {
	repo types.ActivityReader
	cfg  activityQueryConfig
}

// NewActivityCountQuery constructs the count helper.
func NewActivityCountQuery(repo types.ActivityReader, opts ...ActivityQueryOption) *ActivityCountQuery {
	return &ActivityCountQuery{repo: repo, cfg: newActivityQueryConfig(opts)}
}

var _ gocommand.Querier[types.ActivityCountFilter, int64] = (*ActivityCountQuery)(nil)

// Query returns the number of matching activities.
func (q *ActivityCountQuery) Query(ctx context.Context, filter types.ActivityCountFilter) (int64, error) {
	if q.repo == nil {
		return 0, types.ErrMissingActivityRepository
	}
	filters, err := q.cfg.apply(ctx, filter.ActivityFilters)
	if err != nil {
		return 0, err
	}
	return q.repo.Count(ctx, &filters)
}

// ActivityCursorQuery walks the activity feed newest first with opaque
// cursors.
type ActivityCursorQuery struct {
	repo types.ActivityReader
	cfg  activityQueryConfig
}

// NewActivityCursorQuery constructs the keyset pagination helper.
func NewActivityCursorQuery(repo types.ActivityReader, opts ...ActivityQueryOption) *ActivityCursorQuery {
	return &ActivityCursorQuery{repo: repo, cfg: newActivityQueryConfig(opts)}
}

var _ gocommand.Querier[types.ActivityCursorFilter, types.ActivityCursorPage] = (*ActivityCursorQuery)(nil)

// Query returns one page of activities and the cursor of the next one.
func (q *ActivityCursorQuery) Query(ctx context.Context, filter types.ActivityCursorFilter) (types.ActivityCursorPage, error) {
	if q.repo == nil {
		return types.ActivityCursorPage{}, types.ErrMissingActivityRepository
	}
	filters, err := q.cfg.apply(ctx, filter.ActivityFilters)
	if err != nil {
		return types.ActivityCursorPage{}, err
	}
	return q.repo.GetActivitiesByCursor(ctx, &filters)
}
