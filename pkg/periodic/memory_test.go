package periodic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beat/pkg/periodic"
)

func TestMemoryStore_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := periodic.NewMemoryStore()

	created, err := store.Create(ctx, periodic.Definition{Name: "every-30", Task: "tasks.periodic", Interval: 30, Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = store.Create(ctx, periodic.Definition{Name: "every-30", Task: "tasks.other", Interval: 10})
	assert.ErrorIs(t, err, periodic.ErrDuplicateName)

	_, err = store.Create(ctx, periodic.Definition{Name: "bad", Task: "t", Interval: 10, Crontab: periodic.Crontab{Hour: "1"}})
	assert.ErrorIs(t, err, periodic.ErrScheduleConflict)

	got, err := store.GetByName(ctx, "every-30")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	crontab := periodic.Crontab{Minute: "0", Hour: "8"}
	updated, err := store.Update(ctx, created.ID, periodic.Patch{Crontab: &crontab})
	require.NoError(t, err)
	assert.Zero(t, updated.Interval)
	assert.Equal(t, crontab, updated.Crontab)

	err = store.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = store.Get(ctx, created.ID)
	assert.True(t, periodic.IsNotFound(err))
	assert.ErrorIs(t, store.Delete(ctx, created.ID), periodic.ErrNotFound)
}

func TestMemoryStore_UpdateRenameConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := periodic.NewMemoryStore()

	_, err := store.Create(ctx, periodic.Definition{Name: "a", Task: "t", Interval: 1})
	require.NoError(t, err)
	b, err := store.Create(ctx, periodic.Definition{Name: "b", Task: "t", Interval: 1})
	require.NoError(t, err)

	name := "a"
	_, err = store.Update(ctx, b.ID, periodic.Patch{Name: &name})
	assert.ErrorIs(t, err, periodic.ErrDuplicateName)

	bad := periodic.Crontab{Minute: "99"}
	_, err = store.Update(ctx, b.ID, periodic.Patch{Crontab: &bad})
	assert.ErrorIs(t, err, periodic.ErrInvalidCrontab)

	unchanged, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", unchanged.Name)
	assert.Equal(t, int64(1), unchanged.Interval)
}

func TestMemoryStore_ListEnabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := periodic.NewMemoryStore()

	_, err := store.Create(ctx, periodic.Definition{Name: "on", Task: "t", Interval: 1, Enabled: true})
	require.NoError(t, err)
	off, err := store.Create(ctx, periodic.Definition{Name: "off", Task: "t", Interval: 1})
	require.NoError(t, err)

	enabled, err := store.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].Name)

	on := true
	_, err = store.Update(ctx, off.ID, periodic.Patch{Enabled: &on})
	require.NoError(t, err)

	enabled, err = store.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 2)
}

func TestMemoryStore_Runs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := periodic.NewMemoryStore()

	_, err := store.Create(ctx, periodic.Definition{Name: "report", Task: "t", Interval: 60, Enabled: true})
	require.NoError(t, err)

	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(ctx, periodic.Run{TaskName: "report", ScheduledAt: at, EnqueuedAt: at, Status: periodic.RunEnqueued}))
	require.NoError(t, store.RecordRun(ctx, periodic.Run{TaskName: "report", ScheduledAt: at, EnqueuedAt: at.Add(time.Minute), Status: periodic.RunExpired}))

	def, err := store.GetByName(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, int64(1), def.TotalRunCount)
	require.NotNil(t, def.LastRunAt)
	assert.Equal(t, at, *def.LastRunAt)

	runs, err := store.ListRuns(ctx, periodic.RunFilter{TaskName: "rep"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, periodic.RunExpired, runs[0].Status)

	runs, err = store.ListRuns(ctx, periodic.RunFilter{Status: periodic.RunEnqueued, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
