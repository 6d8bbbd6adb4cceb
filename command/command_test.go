package command

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-records/activity"
	"github.com/goliatone/go-records/adapter/sqlitestore"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
	"github.com/stretchr/testify/require"
)

func newActivityRepo(t *testing.T) *activity.Repository {
	t.Helper()
	db, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	driver, err := sqlitestore.New(sqlitestore.Config{DB: db})
	require.NoError(t, err)
	repo, err := activity.NewRepository(activity.RepositoryConfig{Driver: driver})
	require.NoError(t, err)
	return repo
}

type failingWriter struct {
	types.ActivityWriter
	err error
}

func (f failingWriter) Insert(context.Context, *types.Activity, types.InsertBehavior) (*types.Activity, error) {
	return nil, f.err
}

func TestActivityLogCommandRequiresRepository(t *testing.T) {
	cmd := NewActivityLogCommand(ActivityLogConfig{})
	err := cmd.Execute(context.Background(), ActivityLogInput{Activity: &types.Activity{Action: "login"}})
	require.ErrorIs(t, err, types.ErrMissingActivityRepository)
}

func TestActivityLogInputValidate(t *testing.T) {
	require.ErrorIs(t, ActivityLogInput{}.Validate(), ErrActivityRequired)
	require.ErrorIs(t, ActivityLogInput{Activity: &types.Activity{Action: "  "}}.Validate(), ErrActivityActionRequired)
	require.ErrorIs(t, ActivityLogInput{
		Activity: &types.Activity{Action: "login"},
		Behavior: types.InsertBehavior(5),
	}.Validate(), ErrInvalidInsertBehavior)
	require.NoError(t, ActivityLogInput{Activity: &types.Activity{Action: "login"}}.Validate())
}

func TestActivityLogCommandPersistsMaskedActivityAndFiresHook(t *testing.T) {
	ctx := context.Background()
	repo := newActivityRepo(t)

	var hooked *types.Activity
	cmd := NewActivityLogCommand(ActivityLogConfig{
		Repository: repo,
		Hooks: types.Hooks{
			AfterActivity: func(_ context.Context, a *types.Activity) { hooked = a },
		},
	})

	var result types.Activity
	err := cmd.Execute(ctx, ActivityLogInput{
		Activity: &types.Activity{
			Action:   "user.password_changed",
			Metadata: map[string]any{"token": "plain-text", "ip": "10.0.0.2"},
		},
		Result: &result,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.ID)
	require.NotNil(t, hooked)
	require.Equal(t, result.ID, hooked.ID)

	stored, err := repo.FindByID(ctx, result.ID)
	require.NoError(t, err)
	require.NotEqual(t, "plain-text", stored.Metadata["token"])
	require.Equal(t, "10.0.0.2", stored.Metadata["ip"])
}

func TestActivityLogCommandPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("write failed")
	hookCalled := false
	cmd := NewActivityLogCommand(ActivityLogConfig{
		Repository: failingWriter{err: boom},
		Hooks: types.Hooks{
			AfterActivity: func(context.Context, *types.Activity) { hookCalled = true },
		},
	})
	err := cmd.Execute(context.Background(), ActivityLogInput{Activity: &types.Activity{Action: "login"}})
	require.ErrorIs(t, err, boom)
	require.False(t, hookCalled)
}

func TestActivityBulkLogCommand(t *testing.T) {
	ctx := context.Background()
	repo := newActivityRepo(t)
	cmd := NewActivityBulkLogCommand(ActivityLogConfig{Repository: repo})

	err := cmd.Execute(ctx, ActivityBulkLogInput{})
	require.ErrorIs(t, err, ErrActivitiesRequired)

	err = cmd.Execute(ctx, ActivityBulkLogInput{Activities: []*types.Activity{{Action: "a"}, {}}})
	require.ErrorIs(t, err, ErrActivityActionRequired)

	var results []*types.Activity
	err = cmd.Execute(ctx, ActivityBulkLogInput{
		Activities: []*types.Activity{{Action: "import.started"}, {Action: "import.finished"}},
		Results:    &results,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestActivityDeleteCommand(t *testing.T) {
	ctx := context.Background()
	repo := newActivityRepo(t)
	logged, err := repo.Log(ctx, &types.Activity{Action: "login"})
	require.NoError(t, err)

	var deletedHook types.DeleteBehavior = -1
	cmd := NewActivityDeleteCommand(ActivityDeleteConfig{
		Repository: repo,
		Hooks: types.Hooks{
			AfterActivityDelete: func(_ context.Context, _ *types.Activity, behavior types.DeleteBehavior) {
				deletedHook = behavior
			},
		},
	})

	require.ErrorIs(t, cmd.Execute(ctx, ActivityDeleteInput{}), ErrActivityIDRequired)

	var deleted bool
	require.NoError(t, cmd.Execute(ctx, ActivityDeleteInput{ID: logged.ID, Deleted: &deleted}))
	require.True(t, deleted)
	require.Equal(t, types.DeleteSoft, deletedHook)

	stored, err := repo.FindByID(ctx, logged.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDeleted)

	require.NoError(t, cmd.Execute(ctx, ActivityDeleteInput{ID: logged.ID, Behavior: types.DeleteHard, Deleted: &deleted}))
	require.True(t, deleted)
	require.Equal(t, types.DeleteHard, deletedHook)

	err = cmd.Execute(ctx, ActivityDeleteInput{ID: logged.ID})
	require.True(t, store.IsNotFound(err))
}
