package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-records/pkg/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCountCacheSize = 256
	DefaultCountCacheTTL  = 30 * time.Second
)

// CachedRepository serves repeated counts from an expiring LRU. Every write
// through it purges the cached counts.
type CachedRepository struct {
	types.ActivityRepository
	counts *expirable.LRU[string, int64]
}

// NewCachedRepository wraps backend. Non positive size or ttl fall back to
// the defaults.
func NewCachedRepository(backend types.ActivityRepository, size int, ttl time.Duration) *CachedRepository {
	if size <= 0 {
		size = DefaultCountCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCountCacheTTL
	}
	return &CachedRepository{
		ActivityRepository: backend,
		counts:             expirable.NewLRU[string, int64](size, nil, ttl),
	}
}

var _ types.ActivityRepository = (*CachedRepository)(nil)

// Count implements types.ActivityReader.
func (r *CachedRepository) Count(ctx context.Context, filters *types.ActivityFilters) (int64, error) {
	key, err := countKey(filters)
	if err != nil {
		return r.ActivityRepository.Count(ctx, filters)
	}
	if n, ok := r.counts.Get(key); ok {
		return n, nil
	}
	n, err := r.ActivityRepository.Count(ctx, filters)
	if err != nil {
		return 0, err
	}
	r.counts.Add(key, n)
	return n, nil
}

// Insert implements types.ActivityWriter.
func (r *CachedRepository) Insert(ctx context.Context, activity *types.Activity, behavior types.InsertBehavior) (*types.Activity, error) {
	defer r.counts.Purge()
	return r.ActivityRepository.Insert(ctx, activity, behavior)
}

// InsertMany implements types.ActivityWriter.
func (r *CachedRepository) InsertMany(ctx context.Context, activities []*types.Activity, behavior types.InsertBehavior) ([]*types.Activity, error) {
	defer r.counts.Purge()
	return r.ActivityRepository.InsertMany(ctx, activities, behavior)
}

// Update implements types.ActivityWriter.
func (r *CachedRepository) Update(ctx context.Context, activity *types.Activity) (*types.Activity, error) {
	defer r.counts.Purge()
	return r.ActivityRepository.Update(ctx, activity)
}

// Delete implements types.ActivityWriter.
func (r *CachedRepository) Delete(ctx context.Context, activity *types.Activity, behavior types.DeleteBehavior) (bool, error) {
	defer r.counts.Purge()
	return r.ActivityRepository.Delete(ctx, activity, behavior)
}

// countKey ignores the paging fields, they do not change a count.
func countKey(filters *types.ActivityFilters) (string, error) {
	var f types.ActivityFilters
	if filters != nil {
		f = *filters
	}
	f.Pagination = nil
	f.Sort = nil
	f.Cursor = nil
	raw, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
