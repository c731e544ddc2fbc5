package health

import "errors"

var (
	// ErrCheckFailed is returned by Response.Err when any check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check that did not finish before the run deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckPanicked marks a check that panicked. The panic is recovered
	// and reported as a failure.
	ErrCheckPanicked = errors.New("health: check panicked")
)
