package scheduler

import (
	"errors"
	"time"

	"github.com/dmitrymomot/beat/pkg/periodic"
)

// Entry is the dispatch-ready form of one enabled definition.
// Entries are immutable once built; a refresh replaces them wholesale.
type Entry struct {
	Schedule Predicate
	Kwargs   map[string]string
	Name     string
	Task     string
	Spec     string
	Args     []string
	Expires  time.Duration
}

// newEntry translates a definition. A positive interval takes precedence
// over crontab fields.
func newEntry(def periodic.Definition, expires time.Duration) (*Entry, error) {
	var pred Predicate
	if def.Interval > periodic.MaxInterval {
		return nil, errors.Join(ErrMalformedDefinition, periodic.ErrInvalidInterval)
	}
	if def.Interval > 0 {
		pred = Every(def.IntervalDuration())
	} else {
		c, err := ParseCrontab(def.Crontab)
		if err != nil {
			return nil, errors.Join(ErrMalformedDefinition, err)
		}
		pred = c
	}

	args, err := def.ParsedArgs()
	if err != nil {
		return nil, errors.Join(ErrMalformedDefinition, err)
	}
	kwargs, err := def.ParsedKwargs()
	if err != nil {
		return nil, errors.Join(ErrMalformedDefinition, err)
	}

	return &Entry{
		Name:     def.Name,
		Task:     def.Task,
		Schedule: pred,
		Spec:     pred.String(),
		Args:     args,
		Kwargs:   kwargs,
		Expires:  expires,
	}, nil
}
