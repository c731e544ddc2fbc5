package job

import "errors"

// Job errors.
var (
	// ErrUnknownTask is returned when a dispatched task has no registered
	// handler on the worker.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrInvalidPayload is returned when a task's keyword arguments cannot be
	// decoded into the handler's payload type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrExpired is returned when a job is picked up after its expiration
	// time. Such jobs are cancelled, not retried.
	ErrExpired = errors.New("job: expired before execution")

	// ErrTaskRequired is returned when enqueueing without a task name.
	ErrTaskRequired = errors.New("job: task name is required")

	// ErrAlreadyStarted is returned when attempting to start a manager
	// that is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when attempting to stop a manager
	// that is not running.
	ErrNotStarted = errors.New("job: not started")

	// ErrPoolRequired is returned when attempting to create a manager
	// or enqueuer without providing a database pool.
	ErrPoolRequired = errors.New("job: pool is required")

	// ErrMigrate is returned when the River schema cannot be migrated.
	ErrMigrate = errors.New("job: river migration failed")

	// ErrNotFound is returned when no periodic job has the given ID.
	ErrNotFound = errors.New("job: not found")

	// ErrInvalidState is returned for a job state River does not define.
	ErrInvalidState = errors.New("job: invalid state")
)
