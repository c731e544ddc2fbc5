package periodic

import (
	"context"
	"time"
)

// Reader is the read-only surface the scheduler depends on.
type Reader interface {
	// ListEnabled returns every enabled definition.
	ListEnabled(ctx context.Context) ([]Definition, error)
}

// Store is the full definition store used by management tooling.
// Implementations enforce Definition.Validate and name uniqueness on write.
type Store interface {
	Reader

	// List returns all definitions ordered by ID.
	List(ctx context.Context) ([]Definition, error)

	// Get returns the definition with the given ID.
	Get(ctx context.Context, id int64) (Definition, error)

	// GetByName returns the definition with the given name.
	GetByName(ctx context.Context, name string) (Definition, error)

	// Create persists a new definition and returns it with ID and
	// timestamps populated.
	Create(ctx context.Context, def Definition) (Definition, error)

	// Update applies a patch to the definition with the given ID.
	Update(ctx context.Context, id int64, patch Patch) (Definition, error)

	// Delete removes the definition with the given ID.
	Delete(ctx context.Context, id int64) error
}

// Run status values.
const (
	RunEnqueued = "enqueued"
	RunExpired  = "expired"
	RunFailed   = "failed"
)

// Run is one dispatch of a periodic definition.
type Run struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	TaskName    string    `json:"task_name"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	ID          int64     `json:"id"`
}

// RunFilter narrows ListRuns results.
type RunFilter struct {
	Since    time.Time
	TaskName string
	Status   string
	Limit    int
}

// RunRecorder persists dispatch history. Recording an enqueued run also
// updates the definition's last run time and run count.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
}
