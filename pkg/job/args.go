package job

import (
	"time"

	"github.com/riverqueue/river"
)

// KindPeriodic is the River job kind of every dispatched periodic task.
const KindPeriodic = "beat:periodic"

// PeriodicArgs are the River job arguments of one periodic fire.
//
// Two beat instances enqueueing the same fire produce identical args, so
// River's by-args uniqueness keeps only one of them.
type PeriodicArgs struct {
	ScheduledAt  time.Time         `json:"scheduled_at"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	Kwargs       map[string]string `json:"kwargs"`
	Task         string            `json:"task"`
	PeriodicName string            `json:"periodic_name"`
	Args         []string          `json:"args"`
}

func (PeriodicArgs) Kind() string {
	return KindPeriodic
}

func (PeriodicArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	}
}

// Expired reports whether the job is past its expiration time at now.
func (a PeriodicArgs) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// Call is what a task handler receives for one execution.
type Call struct {
	ScheduledAt  time.Time
	Kwargs       map[string]string
	Task         string
	PeriodicName string
	Args         []string
	JobID        int64
	Attempt      int
}

func (a PeriodicArgs) call(jobID int64, attempt int) Call {
	args := a.Args
	if args == nil {
		args = []string{}
	}
	kwargs := a.Kwargs
	if kwargs == nil {
		kwargs = map[string]string{}
	}
	return Call{
		ScheduledAt:  a.ScheduledAt,
		Kwargs:       kwargs,
		Task:         a.Task,
		PeriodicName: a.PeriodicName,
		Args:         args,
		JobID:        jobID,
		Attempt:      attempt,
	}
}
