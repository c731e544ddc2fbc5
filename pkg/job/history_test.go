package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	t.Parallel()

	state, err := ParseState("")
	require.NoError(t, err)
	assert.Empty(t, state)

	state, err = ParseState(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, rivertype.JobStateCompleted, state)

	_, err = ParseState("finished")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestHistoryParams_RejectsUnknownState(t *testing.T) {
	t.Parallel()

	_, err := historyParams(HistoryFilter{State: "lost"})
	assert.ErrorIs(t, err, ErrInvalidState)

	params, err := historyParams(HistoryFilter{State: "retryable"})
	require.NoError(t, err)
	assert.NotNil(t, params)
}

func TestHistoryFilter_Matches(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{Task: "tasks.cleanup", Periodic: "nightly-cleanup", CreatedAt: created}

	assert.True(t, HistoryFilter{}.matches(rec))
	assert.True(t, HistoryFilter{Task: "tasks.cleanup"}.matches(rec))
	assert.True(t, HistoryFilter{Task: "nightly-cleanup"}.matches(rec))
	assert.False(t, HistoryFilter{Task: "tasks.report"}.matches(rec))
	assert.True(t, HistoryFilter{Since: created}.matches(rec))
	assert.False(t, HistoryFilter{Since: created.Add(time.Second)}.matches(rec))
}

func TestRecordFromRow(t *testing.T) {
	t.Parallel()

	scheduled := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	encoded, err := json.Marshal(PeriodicArgs{
		Task:         "tasks.report",
		PeriodicName: "daily-report",
		Args:         []string{"a"},
		Kwargs:       map[string]string{"format": "pdf"},
		ScheduledAt:  scheduled,
	})
	require.NoError(t, err)

	finalized := scheduled.Add(time.Minute)
	rec, err := recordFromRow(&rivertype.JobRow{
		ID:          42,
		State:       rivertype.JobStateDiscarded,
		Queue:       "default",
		Kind:        KindPeriodic,
		EncodedArgs: encoded,
		Attempt:     3,
		MaxAttempts: 3,
		CreatedAt:   scheduled,
		FinalizedAt: &finalized,
		Errors: []rivertype.AttemptError{
			{At: scheduled.Add(time.Second), Attempt: 1, Error: "report service down", Trace: "goroutine 1 [running]"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, "discarded", rec.State)
	assert.Equal(t, "tasks.report", rec.Task)
	assert.Equal(t, "daily-report", rec.Periodic)
	assert.Equal(t, []string{"a"}, rec.Args)
	assert.Equal(t, map[string]string{"format": "pdf"}, rec.Kwargs)
	assert.Equal(t, scheduled, rec.ScheduledAt)
	assert.Equal(t, &finalized, rec.FinalizedAt)
	require.Len(t, rec.Errors, 1)
	assert.Equal(t, "report service down", rec.Errors[0].Error)
	assert.Equal(t, "goroutine 1 [running]", rec.Errors[0].Trace)

	_, err = recordFromRow(&rivertype.JobRow{EncodedArgs: []byte("{")})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestRecordFromRow_EmptyArguments(t *testing.T) {
	t.Parallel()

	rec, err := recordFromRow(&rivertype.JobRow{EncodedArgs: []byte(`{"task":"tasks.ping"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{}, rec.Args)
	assert.Equal(t, map[string]string{}, rec.Kwargs)
	assert.Empty(t, rec.Errors)
}
