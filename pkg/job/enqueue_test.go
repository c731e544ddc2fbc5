package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beat/pkg/scheduler"
)

func TestInsertOpts_Defaults(t *testing.T) {
	t.Parallel()

	opts := insertOpts(PeriodicArgs{}.InsertOpts())
	require.NotNil(t, opts)
	assert.True(t, opts.UniqueOpts.ByArgs)
	assert.Empty(t, opts.Queue)
	assert.Zero(t, opts.MaxAttempts)
}

func TestInsertOpts_Overrides(t *testing.T) {
	t.Parallel()

	opts := insertOpts(PeriodicArgs{}.InsertOpts(),
		InQueue("reports"),
		MaxAttempts(3),
		Priority(2),
		Tags("nightly"),
		Tags("beat"),
	)
	assert.Equal(t, "reports", opts.Queue)
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 2, opts.Priority)
	assert.Equal(t, []string{"nightly", "beat"}, opts.Tags)
	assert.True(t, opts.UniqueOpts.ByArgs, "uniqueness survives overrides")
}

func TestInsertOpts_IgnoresZeroValues(t *testing.T) {
	t.Parallel()

	opts := insertOpts(PeriodicArgs{}.InsertOpts(), InQueue(""), MaxAttempts(0), Priority(-1))
	assert.Empty(t, opts.Queue)
	assert.Zero(t, opts.MaxAttempts)
	assert.Zero(t, opts.Priority)
}

func TestArgsFromDispatch(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 5, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))

	t.Run("with expiry", func(t *testing.T) {
		t.Parallel()

		args := ArgsFromDispatch(scheduler.Dispatch{
			Name:        "nightly",
			Task:        "reports.build",
			Args:        []string{"a"},
			Kwargs:      map[string]string{"period": "day"},
			ScheduledAt: due,
			ExpiresAt:   due.Add(time.Minute),
		})

		assert.Equal(t, "reports.build", args.Task)
		assert.Equal(t, "nightly", args.PeriodicName)
		assert.Equal(t, []string{"a"}, args.Args)
		assert.Equal(t, map[string]string{"period": "day"}, args.Kwargs)
		assert.Equal(t, time.UTC, args.ScheduledAt.Location())
		assert.True(t, args.ScheduledAt.Equal(due))
		require.NotNil(t, args.ExpiresAt)
		assert.True(t, args.ExpiresAt.Equal(due.Add(time.Minute)))
	})

	t.Run("without expiry", func(t *testing.T) {
		t.Parallel()

		args := ArgsFromDispatch(scheduler.Dispatch{Name: "n", Task: "t", ScheduledAt: due})
		assert.Nil(t, args.ExpiresAt)
		assert.False(t, args.Expired(due.Add(24*time.Hour)))
	})
}

func TestPeriodicArgs_Expired(t *testing.T) {
	t.Parallel()

	exp := time.Date(2026, 5, 1, 8, 1, 0, 0, time.UTC)
	args := PeriodicArgs{ExpiresAt: &exp}

	assert.False(t, args.Expired(exp.Add(-time.Second)))
	assert.False(t, args.Expired(exp))
	assert.True(t, args.Expired(exp.Add(time.Second)))
}

func TestPeriodicArgs_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "beat:periodic", PeriodicArgs{}.Kind())
}
