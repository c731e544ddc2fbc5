package periodic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beat/pkg/periodic"
)

func TestDefinition_SetScheduleIsMutuallyExclusive(t *testing.T) {
	t.Parallel()

	t.Run("interval clears crontab", func(t *testing.T) {
		t.Parallel()

		d := periodic.Definition{Name: "n", Task: "t"}
		d.SetCrontab(periodic.Crontab{Minute: "0", Hour: "8", DayOfWeek: "mon", DayOfMonth: "1", MonthOfYear: "1"})
		d.SetInterval(30)

		assert.Equal(t, int64(30), d.Interval)
		assert.True(t, d.Crontab.IsZero())
		assert.False(t, d.HasConflict())
	})

	t.Run("crontab clears interval", func(t *testing.T) {
		t.Parallel()

		d := periodic.Definition{Name: "n", Task: "t"}
		d.SetInterval(30)
		d.SetCrontab(periodic.Crontab{Minute: "0"})

		assert.Zero(t, d.Interval)
		assert.Equal(t, "0", d.Crontab.Minute)
		assert.False(t, d.HasConflict())
	})
}

func TestDefinition_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		def     periodic.Definition
		wantErr error
	}{
		{
			name: "interval",
			def:  periodic.Definition{Name: "a", Task: "t", Interval: 30},
		},
		{
			name: "crontab",
			def:  periodic.Definition{Name: "a", Task: "t", Crontab: periodic.Crontab{Minute: "0", Hour: "8"}},
		},
		{
			name: "all wildcards",
			def:  periodic.Definition{Name: "a", Task: "t"},
		},
		{
			name: "day of week names",
			def:  periodic.Definition{Name: "a", Task: "t", Crontab: periodic.Crontab{DayOfWeek: "mon,fri"}},
		},
		{
			name:    "missing name",
			def:     periodic.Definition{Task: "t", Interval: 1},
			wantErr: periodic.ErrNameRequired,
		},
		{
			name:    "missing task",
			def:     periodic.Definition{Name: "a", Interval: 1},
			wantErr: periodic.ErrTaskRequired,
		},
		{
			name:    "negative interval",
			def:     periodic.Definition{Name: "a", Task: "t", Interval: -1},
			wantErr: periodic.ErrInvalidInterval,
		},
		{
			name:    "interval overflows duration",
			def:     periodic.Definition{Name: "a", Task: "t", Interval: 10_000_000_000},
			wantErr: periodic.ErrInvalidInterval,
		},
		{
			name: "largest interval",
			def:  periodic.Definition{Name: "a", Task: "t", Interval: periodic.MaxInterval},
		},
		{
			name:    "both schedules",
			def:     periodic.Definition{Name: "a", Task: "t", Interval: 5, Crontab: periodic.Crontab{Minute: "0"}},
			wantErr: periodic.ErrScheduleConflict,
		},
		{
			name:    "minute out of range",
			def:     periodic.Definition{Name: "a", Task: "t", Crontab: periodic.Crontab{Minute: "60"}},
			wantErr: periodic.ErrInvalidCrontab,
		},
		{
			name:    "hour out of range",
			def:     periodic.Definition{Name: "a", Task: "t", Crontab: periodic.Crontab{Hour: "24"}},
			wantErr: periodic.ErrInvalidCrontab,
		},
		{
			name:    "whitespace in field",
			def:     periodic.Definition{Name: "a", Task: "t", Crontab: periodic.Crontab{Minute: "0 1"}},
			wantErr: periodic.ErrInvalidCrontab,
		},
		{
			name:    "args not an array",
			def:     periodic.Definition{Name: "a", Task: "t", Interval: 1, Args: `{"a":"b"}`},
			wantErr: periodic.ErrInvalidArgs,
		},
		{
			name:    "kwargs malformed",
			def:     periodic.Definition{Name: "a", Task: "t", Interval: 1, Kwargs: `{"a":`},
			wantErr: periodic.ErrInvalidKwargs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.def.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCrontab_Expression(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "* * * * *", periodic.Crontab{}.Expression())
	assert.Equal(t, "0 8 * * *", periodic.Crontab{Minute: "0", Hour: "8"}.Expression())
	assert.Equal(t, "*/5 * 1 6 mon",
		periodic.Crontab{Minute: "*/5", DayOfMonth: "1", MonthOfYear: "6", DayOfWeek: "mon"}.Expression())
}

func TestDefinition_ScheduleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "every 30s", periodic.Definition{Interval: 30}.ScheduleString())
	assert.Equal(t, "0 8 * * *", periodic.Definition{Crontab: periodic.Crontab{Minute: "0", Hour: "8"}}.ScheduleString())
}

func TestPatch_Apply(t *testing.T) {
	t.Parallel()

	t.Run("interval patch clears crontab", func(t *testing.T) {
		t.Parallel()

		d := periodic.Definition{Name: "a", Task: "t", Crontab: periodic.Crontab{Minute: "0", Hour: "8"}}
		interval := int64(10)
		require.NoError(t, periodic.Patch{Interval: &interval}.Apply(&d))

		assert.Equal(t, int64(10), d.Interval)
		assert.True(t, d.Crontab.IsZero())
	})

	t.Run("crontab patch clears interval", func(t *testing.T) {
		t.Parallel()

		d := periodic.Definition{Name: "a", Task: "t", Interval: 10}
		require.NoError(t, periodic.Patch{Crontab: &periodic.Crontab{Minute: "15"}}.Apply(&d))

		assert.Zero(t, d.Interval)
		assert.Equal(t, "15", d.Crontab.Minute)
	})

	t.Run("both is a conflict", func(t *testing.T) {
		t.Parallel()

		d := periodic.Definition{Name: "a", Task: "t"}
		interval := int64(10)
		err := periodic.Patch{Interval: &interval, Crontab: &periodic.Crontab{}}.Apply(&d)
		assert.ErrorIs(t, err, periodic.ErrScheduleConflict)
	})

	t.Run("args and kwargs are encoded", func(t *testing.T) {
		t.Parallel()

		d := periodic.Definition{Name: "a", Task: "t"}
		require.NoError(t, periodic.Patch{
			Args:   []string{"x"},
			Kwargs: map[string]string{"k": "v"},
		}.Apply(&d))

		assert.JSONEq(t, `["x"]`, d.Args)
		assert.JSONEq(t, `{"k":"v"}`, d.Kwargs)
	})
}
