package beat

import "errors"

var (
	// ErrSchedulerRequired is returned by Run when no scheduler is configured.
	ErrSchedulerRequired = errors.New("beat: scheduler is required")

	// ErrStartupFailed wraps a failing startup hook.
	ErrStartupFailed = errors.New("beat: startup failed")
)
