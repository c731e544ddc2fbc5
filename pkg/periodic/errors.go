package periodic

import "errors"

// Definition errors.
var (
	// ErrNotFound is returned when a definition does not exist.
	ErrNotFound = errors.New("periodic: definition not found")

	// ErrDuplicateName is returned when a definition with the same name
	// already exists.
	ErrDuplicateName = errors.New("periodic: duplicate definition name")

	// ErrNameRequired is returned when a definition has no name.
	ErrNameRequired = errors.New("periodic: name is required")

	// ErrTaskRequired is returned when a definition has no task reference.
	ErrTaskRequired = errors.New("periodic: task is required")

	// ErrInvalidInterval is returned for a negative or oversized interval.
	ErrInvalidInterval = errors.New("periodic: interval must be positive")

	// ErrScheduleConflict is returned when both an interval and crontab
	// fields are set on the same definition.
	ErrScheduleConflict = errors.New("periodic: interval and crontab are mutually exclusive")

	// ErrInvalidCrontab is returned when a crontab field cannot be parsed.
	ErrInvalidCrontab = errors.New("periodic: invalid crontab")

	// ErrInvalidArgs is returned when positional arguments are not a JSON
	// array of strings.
	ErrInvalidArgs = errors.New("periodic: invalid args")

	// ErrInvalidKwargs is returned when keyword arguments are not a JSON
	// object of strings.
	ErrInvalidKwargs = errors.New("periodic: invalid kwargs")
)
