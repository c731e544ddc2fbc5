package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	// DefaultHistoryLimit caps ListJobs when the filter has no limit.
	DefaultHistoryLimit = 20

	historyPageSize = 200
)

// States lists the River job states a history filter accepts.
var States = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStateCancelled,
	rivertype.JobStateCompleted,
	rivertype.JobStateDiscarded,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

// HistoryFilter narrows a periodic job listing. Zero fields match all jobs.
type HistoryFilter struct {
	Since time.Time
	State string
	Task  string
	Limit int
}

// AttemptError is one failed execution attempt of a job.
type AttemptError struct {
	At      time.Time `json:"at"`
	Attempt int       `json:"attempt"`
	Error   string    `json:"error"`
	Trace   string    `json:"trace,omitempty"`
}

// Record is the execution history of one periodic job.
type Record struct {
	CreatedAt   time.Time         `json:"created_at"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	FinalizedAt *time.Time        `json:"finalized_at,omitempty"`
	Kwargs      map[string]string `json:"kwargs"`
	State       string            `json:"state"`
	Queue       string            `json:"queue"`
	Task        string            `json:"task"`
	Periodic    string            `json:"periodic_name"`
	Args        []string          `json:"args"`
	Errors      []AttemptError    `json:"errors,omitempty"`
	ID          int64             `json:"id"`
	Attempt     int               `json:"attempt"`
	MaxAttempts int               `json:"max_attempts"`
}

// ListJobs returns periodic jobs newest first, up to the filter limit.
func (e *Enqueuer) ListJobs(ctx context.Context, f HistoryFilter) ([]Record, error) {
	params, err := historyParams(f)
	if err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	out := make([]Record, 0, min(limit, historyPageSize))
	for {
		res, err := e.client.JobList(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("job: list jobs: %w", err)
		}

		for _, row := range res.Jobs {
			rec, err := recordFromRow(row)
			if err != nil {
				return nil, err
			}
			if !f.matches(rec) {
				continue
			}
			out = append(out, rec)
			if len(out) == limit {
				return out, nil
			}
		}

		if len(res.Jobs) < historyPageSize || res.LastCursor == nil {
			return out, nil
		}
		params = params.After(res.LastCursor)
	}
}

// GetJob returns one periodic job by its River ID.
func (e *Enqueuer) GetJob(ctx context.Context, id int64) (Record, error) {
	row, err := e.client.JobGet(ctx, id)
	if err != nil {
		if errors.Is(err, rivertype.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("job: get job: %w", err)
	}
	if row.Kind != KindPeriodic {
		return Record{}, ErrNotFound
	}
	return recordFromRow(row)
}

// ParseState validates a state name. An empty name is allowed and
// matches every state.
func ParseState(s string) (rivertype.JobState, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	state := rivertype.JobState(s)
	if !slices.Contains(States, state) {
		return "", errors.Join(ErrInvalidState, errors.New(s))
	}
	return state, nil
}

func historyParams(f HistoryFilter) (*river.JobListParams, error) {
	state, err := ParseState(f.State)
	if err != nil {
		return nil, err
	}

	params := river.NewJobListParams().
		Kinds(KindPeriodic).
		OrderBy(river.JobListOrderByTime, river.SortOrderDesc).
		First(historyPageSize)
	if state != "" {
		params = params.States(state)
	}
	return params, nil
}

func (f HistoryFilter) matches(rec Record) bool {
	if f.Task != "" && rec.Task != f.Task && rec.Periodic != f.Task {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

func recordFromRow(row *rivertype.JobRow) (Record, error) {
	var args PeriodicArgs
	if err := json.Unmarshal(row.EncodedArgs, &args); err != nil {
		return Record{}, errors.Join(ErrInvalidPayload, err)
	}

	rec := Record{
		ID:          row.ID,
		State:       string(row.State),
		Queue:       row.Queue,
		Task:        args.Task,
		Periodic:    args.PeriodicName,
		Args:        args.Args,
		Kwargs:      args.Kwargs,
		Attempt:     row.Attempt,
		MaxAttempts: row.MaxAttempts,
		CreatedAt:   row.CreatedAt,
		ScheduledAt: args.ScheduledAt,
		FinalizedAt: row.FinalizedAt,
	}
	if rec.Args == nil {
		rec.Args = []string{}
	}
	if rec.Kwargs == nil {
		rec.Kwargs = map[string]string{}
	}
	for _, ae := range row.Errors {
		rec.Errors = append(rec.Errors, AttemptError{
			At:      ae.At,
			Attempt: ae.Attempt,
			Error:   ae.Error,
			Trace:   ae.Trace,
		})
	}
	return rec, nil
}
