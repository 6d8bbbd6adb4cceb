package activity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-records/adapter/sqlitestore"
	"github.com/goliatone/go-records/cursor"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type steppingClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

func newTestDriver(t *testing.T) *sqlitestore.Driver {
	t.Helper()
	db, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	driver, err := sqlitestore.New(sqlitestore.Config{DB: db})
	require.NoError(t, err)
	return driver
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(RepositoryConfig{
		Driver: newTestDriver(t),
		Clock:  &steppingClock{next: baseTime, step: time.Minute},
	})
	require.NoError(t, err)
	return repo
}

func seedActivities(t *testing.T, repo *Repository, activities ...*types.Activity) []*types.Activity {
	t.Helper()
	out := make([]*types.Activity, 0, len(activities))
	for _, a := range activities {
		logged, err := repo.Insert(context.Background(), a, types.InsertFailIfExists)
		require.NoError(t, err)
		out = append(out, logged)
	}
	return out
}

func actions(items []*types.Activity) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Action)
	}
	return out
}

func TestNewRepositoryRequiresDriver(t *testing.T) {
	_, err := NewRepository(RepositoryConfig{})
	require.ErrorIs(t, err, types.ErrMissingDriver)
}

func TestNewRepositoryDefaultsCollection(t *testing.T) {
	repo := newTestRepository(t)
	require.Equal(t, CollectionName, repo.Name())
}

func TestLogMasksMetadataAndStampsFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	logged, err := repo.Log(ctx, &types.Activity{
		Action:   "user.login",
		User:     types.UserRef{ID: "u1"},
		Metadata: map[string]any{"secret": "hunter2-password", "source": "api"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, logged.ID)
	require.Equal(t, baseTime, logged.CreatedAt)

	stored, err := repo.FindByID(ctx, logged.ID)
	require.NoError(t, err)
	require.Equal(t, "user.login", stored.Action)
	require.Equal(t, "api", stored.Metadata["source"])
	require.NotEqual(t, "hunter2-password", stored.Metadata["secret"])

	_, err = repo.Log(ctx, nil)
	require.ErrorIs(t, err, types.ErrActivityRequired)
}

func TestGetActivitiesAppliesFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	warning := types.ActivityLevelWarning

	seeded := seedActivities(t, repo,
		&types.Activity{Action: "login", Tenant: types.TenantRef{ID: "t1"}, User: types.UserRef{ID: "u1"}, Description: "Signed in via a.b"},
		&types.Activity{Action: "logout", Tenant: types.TenantRef{ID: "t1"}, User: types.UserRef{ID: "u2"}, Description: "Signed out via axb", Level: warning},
		&types.Activity{Action: "login", Tenant: types.TenantRef{ID: "t2"}, Resource: types.ResourceRef{Identifier: "doc-1", Kind: "document"}, Channel: "web"},
		&types.Activity{Action: "export", Tenant: types.TenantRef{ID: "t1"}, Metadata: map[string]any{"format": "csv"}},
	)

	run := func(f types.ActivityFilters) []string {
		items, err := repo.GetActivities(ctx, &f)
		require.NoError(t, err)
		return actions(items)
	}

	require.Equal(t, []string{"login", "logout", "login", "export"}, run(types.ActivityFilters{}))
	require.Equal(t, []string{"login", "login"}, run(types.ActivityFilters{Action: "login"}))
	require.Equal(t, []string{"login", "logout", "export"}, run(types.ActivityFilters{TenantID: "t1"}))
	require.Equal(t, []string{"logout"}, run(types.ActivityFilters{UserID: "u2"}))
	require.Equal(t, []string{"login"}, run(types.ActivityFilters{ResourceID: "doc-1", ResourceKind: "document"}))
	require.Equal(t, []string{"login"}, run(types.ActivityFilters{Channels: []string{"web", "mobile"}}))
	require.Equal(t, []string{"logout"}, run(types.ActivityFilters{Level: &warning}))
	require.Equal(t, []string{"logout", "export"}, run(types.ActivityFilters{Actions: []string{"logout", "export"}}))
	require.Equal(t, []string{"export"}, run(types.ActivityFilters{Metadata: map[string]any{"format": "csv"}}))
	require.Equal(t, []string{"login"}, run(types.ActivityFilters{Keyword: "A.B"}))
	require.Equal(t, []string{"logout"}, run(types.ActivityFilters{ID: seeded[1].ID}))

	from := seeded[1].CreatedAt
	to := seeded[2].CreatedAt
	require.Equal(t, []string{"logout", "login"}, run(types.ActivityFilters{CreatedFrom: &from, CreatedTo: &to}))
}

func TestGetActivitiesExcludesSoftDeletedByDefault(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seeded := seedActivities(t, repo,
		&types.Activity{Action: "keep"},
		&types.Activity{Action: "drop"},
	)
	ok, err := repo.Delete(ctx, seeded[1], types.DeleteSoft)
	require.NoError(t, err)
	require.True(t, ok)

	items, err := repo.GetActivities(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, actions(items))

	deleted := true
	items, err = repo.GetActivities(ctx, &types.ActivityFilters{IsDeleted: &deleted})
	require.NoError(t, err)
	require.Equal(t, []string{"drop"}, actions(items))

	_, err = repo.FindActiveByID(ctx, seeded[1].ID)
	require.True(t, store.IsNotFound(err))
}

func TestGetActivitiesPaginatesThenSorts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	for i := 0; i < 5; i++ {
		seedActivities(t, repo, &types.Activity{Action: fmt.Sprintf("a%d", i)})
	}

	items, err := repo.GetActivities(ctx, &types.ActivityFilters{
		Pagination: &types.PaginationFilters{Skip: 1, Take: 2},
		Sort:       &types.SortFilters{Field: FieldCreatedAt, Direction: types.SortDescending},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a2", "a1"}, actions(items))

	items, err = repo.GetActivities(ctx, &types.ActivityFilters{
		Sort: &types.SortFilters{Field: FieldCreatedAt, Direction: types.SortDescending},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a4", "a3", "a2", "a1", "a0"}, actions(items))

	items, err = repo.GetActivities(ctx, &types.ActivityFilters{
		Pagination: &types.PaginationFilters{Skip: 2, Take: 2},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a2", "a3"}, actions(items))
}

func TestCountMatchesFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	n, err := repo.Count(ctx, &types.ActivityFilters{})
	require.NoError(t, err)
	require.Zero(t, n)

	seeded := seedActivities(t, repo,
		&types.Activity{Action: "login", Tenant: types.TenantRef{ID: "t1"}},
		&types.Activity{Action: "login", Tenant: types.TenantRef{ID: "t2"}},
		&types.Activity{Action: "logout", Tenant: types.TenantRef{ID: "t1"}},
	)

	n, err = repo.Count(ctx, &types.ActivityFilters{Action: "login", Pagination: &types.PaginationFilters{Take: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	_, err = repo.Delete(ctx, seeded[0], types.DeleteSoft)
	require.NoError(t, err)
	n, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestGetActivitiesByCursorWalksAllPages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	for i := 0; i < 10; i++ {
		seedActivities(t, repo, &types.Activity{Action: fmt.Sprintf("a%d", i)})
	}

	var (
		sizes []int
		seen  []string
		token string
	)
	for {
		page, err := repo.GetActivitiesByCursor(ctx, &types.ActivityFilters{
			Cursor: &types.CursorFilters{Cursor: token, Limit: 3},
		})
		require.NoError(t, err)
		sizes = append(sizes, len(page.Items))
		seen = append(seen, actions(page.Items)...)
		if !page.HasMore {
			require.Empty(t, page.NextCursor)
			break
		}
		require.NotEmpty(t, page.NextCursor)
		token = page.NextCursor
	}

	require.Equal(t, []int{3, 3, 3, 1}, sizes)
	require.Equal(t, []string{"a9", "a8", "a7", "a6", "a5", "a4", "a3", "a2", "a1", "a0"}, seen)
}

func TestGetActivitiesByCursorDefaultsAndErrors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	seedActivities(t, repo, &types.Activity{Action: "only"})

	page, err := repo.GetActivitiesByCursor(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, actions(page.Items))
	require.False(t, page.HasMore)

	_, err = repo.GetActivitiesByCursor(ctx, &types.ActivityFilters{
		Cursor: &types.CursorFilters{Cursor: "not-a-cursor"},
	})
	require.True(t, cursor.IsInvalid(err))
}

func TestGetActivitiesByCursorCapsPageSize(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	batch := make([]*types.Activity, 0, types.MaxPageSize+10)
	for i := 0; i < types.MaxPageSize+10; i++ {
		batch = append(batch, &types.Activity{Action: fmt.Sprintf("bulk-%d", i)})
	}
	_, err := repo.InsertMany(ctx, batch, types.InsertFailIfExists)
	require.NoError(t, err)

	page, err := repo.GetActivitiesByCursor(ctx, &types.ActivityFilters{
		Cursor: &types.CursorFilters{Limit: math.MaxInt64},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, types.MaxPageSize)
	require.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)
}

func TestGetActivitiesByCursorOrdersTiesByID(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository(RepositoryConfig{
		Driver: newTestDriver(t),
		Clock:  &steppingClock{next: baseTime},
	})
	require.NoError(t, err)
	batch := make([]*types.Activity, 0, 8)
	for i := 0; i < 8; i++ {
		batch = append(batch, &types.Activity{Action: fmt.Sprintf("bulk-%d", i)})
	}
	_, err = repo.InsertMany(ctx, batch, types.InsertFailIfExists)
	require.NoError(t, err)

	first, err := repo.GetActivitiesByCursor(ctx, &types.ActivityFilters{Cursor: &types.CursorFilters{Limit: 8}})
	require.NoError(t, err)
	require.Len(t, first.Items, 8)
	ids := make([]string, 0, len(first.Items))
	for _, item := range first.Items {
		require.True(t, baseTime.Equal(item.CreatedAt))
		ids = append(ids, item.ID)
	}
	require.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] > ids[j] }))

	again, err := repo.GetActivitiesByCursor(ctx, &types.ActivityFilters{Cursor: &types.CursorFilters{Limit: 8}})
	require.NoError(t, err)
	require.Equal(t, actions(first.Items), actions(again.Items))
}

func TestCachedRepositoryCachesCountsUntilWrite(t *testing.T) {
	ctx := context.Background()
	backend := newTestRepository(t)
	cached := NewCachedRepository(backend, 0, time.Minute)

	seedActivities(t, backend, &types.Activity{Action: "login"})
	n, err := cached.Count(ctx, &types.ActivityFilters{Action: "login"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	seedActivities(t, backend, &types.Activity{Action: "login"})
	n, err = cached.Count(ctx, &types.ActivityFilters{Action: "login", Cursor: &types.CursorFilters{Limit: 5}})
	require.NoError(t, err)
	require.Equal(t, int64(1), n, "paging fields share the cached count")

	_, err = cached.Insert(ctx, &types.Activity{Action: "login"}, types.InsertFailIfExists)
	require.NoError(t, err)
	n, err = cached.Count(ctx, &types.ActivityFilters{Action: "login"})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}
