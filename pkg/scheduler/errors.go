package scheduler

import "errors"

var (
	// ErrStoreUnavailable wraps failures to query the definition store.
	// The previous schedule stays in effect.
	ErrStoreUnavailable = errors.New("scheduler: definition store unavailable")

	// ErrMalformedDefinition wraps a definition that cannot be turned into
	// a schedule entry. The definition is skipped.
	ErrMalformedDefinition = errors.New("scheduler: malformed definition")

	// ErrSourceRequired is returned by NewLoop without a schedule source.
	ErrSourceRequired = errors.New("scheduler: source is required")

	// ErrEnqueueRequired is returned by NewLoop without an enqueue function.
	ErrEnqueueRequired = errors.New("scheduler: enqueue function is required")
)

// Health check errors.
var (
	ErrNeverRefreshed = errors.New("scheduler: schedule never refreshed")
	ErrScheduleStale  = errors.New("scheduler: schedule is stale")
)
