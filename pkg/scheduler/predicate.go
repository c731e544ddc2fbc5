package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/beat/pkg/periodic"
)

// Predicate decides when an entry fires next.
type Predicate interface {
	// Next returns the first fire time strictly after the given time.
	Next(after time.Time) time.Time
	// String identifies the predicate. Equal strings mean equal schedules.
	String() string
}

// Every fires at a fixed interval counted from the previous fire, so
// firing is not aligned to the wall clock.
type Every time.Duration

// Next returns after + interval.
func (e Every) Next(after time.Time) time.Time {
	return after.Add(time.Duration(e))
}

func (e Every) String() string {
	return "every " + time.Duration(e).String()
}

// Cron fires on crontab matches.
type Cron struct {
	schedule cron.Schedule
	expr     string
}

// ParseCrontab builds a Cron predicate. Unset fields match any value.
func ParseCrontab(c periodic.Crontab) (Cron, error) {
	sched, err := c.Schedule()
	if err != nil {
		return Cron{}, err
	}
	return Cron{schedule: sched, expr: c.Expression()}, nil
}

// Next returns the next crontab match after the given time.
func (c Cron) Next(after time.Time) time.Time {
	return c.schedule.Next(after)
}

func (c Cron) String() string {
	return c.expr
}
