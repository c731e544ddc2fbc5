package periodic

import (
	"errors"
	"math"
	"strings"
	"time"
)

// MaxInterval is the largest interval, in seconds, that fits a time.Duration.
const MaxInterval = int64(math.MaxInt64 / int64(time.Second))

// Definition is a persisted description of one recurring job.
//
// Exactly one schedule kind is active: Interval (seconds) when positive,
// otherwise the Crontab fields. Args and Kwargs hold JSON text as stored.
type Definition struct {
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	Crontab       Crontab    `json:"crontab"`
	Name          string     `json:"name"`
	Task          string     `json:"task"`
	Args          string     `json:"args,omitempty"`
	Kwargs        string     `json:"kwargs,omitempty"`
	Description   string     `json:"description,omitempty"`
	ID            int64      `json:"id"`
	Interval      int64      `json:"interval,omitempty"`
	TotalRunCount int64      `json:"total_run_count"`
	Enabled       bool       `json:"enabled"`
}

// SetInterval switches the definition to a fixed interval and clears
// every crontab field.
func (d *Definition) SetInterval(seconds int64) {
	d.Interval = seconds
	d.Crontab = Crontab{}
}

// SetCrontab switches the definition to a crontab schedule and clears
// the interval.
func (d *Definition) SetCrontab(c Crontab) {
	d.Interval = 0
	d.Crontab = c
}

// IntervalDuration returns the interval as a duration, or zero.
func (d Definition) IntervalDuration() time.Duration {
	return time.Duration(d.Interval) * time.Second
}

// HasConflict reports whether both schedule kinds are set.
func (d Definition) HasConflict() bool {
	return d.Interval > 0 && !d.Crontab.IsZero()
}

// SetArgs stores positional arguments as JSON text.
func (d *Definition) SetArgs(args []string) error {
	raw, err := EncodeArgs(args)
	if err != nil {
		return err
	}
	d.Args = raw
	return nil
}

// SetKwargs stores keyword arguments as JSON text.
func (d *Definition) SetKwargs(kwargs map[string]string) error {
	raw, err := EncodeKwargs(kwargs)
	if err != nil {
		return err
	}
	d.Kwargs = raw
	return nil
}

// ParsedArgs decodes the stored positional arguments.
func (d Definition) ParsedArgs() ([]string, error) {
	return DecodeArgs(d.Args)
}

// ParsedKwargs decodes the stored keyword arguments.
func (d Definition) ParsedKwargs() (map[string]string, error) {
	return DecodeKwargs(d.Kwargs)
}

// ScheduleString describes the active schedule, e.g. "every 30s" or
// "0 8 * * *".
func (d Definition) ScheduleString() string {
	if d.Interval > 0 {
		return "every " + d.IntervalDuration().String()
	}
	return d.Crontab.Expression()
}

// Validate checks the write-time invariants of a definition.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(d.Task) == "" {
		return ErrTaskRequired
	}
	if d.Interval < 0 || d.Interval > MaxInterval {
		return ErrInvalidInterval
	}
	if d.HasConflict() {
		return ErrScheduleConflict
	}
	if d.Interval == 0 {
		if _, err := d.Crontab.Schedule(); err != nil {
			return err
		}
	}
	if _, err := d.ParsedArgs(); err != nil {
		return err
	}
	if _, err := d.ParsedKwargs(); err != nil {
		return err
	}
	return nil
}

// Patch describes a partial update applied by management tooling.
// Nil fields are left untouched. Setting Interval clears the crontab and
// setting Crontab clears the interval; setting both is a conflict.
type Patch struct {
	Name        *string
	Task        *string
	Description *string
	Interval    *int64
	Crontab     *Crontab
	Args        []string
	Kwargs      map[string]string
	Enabled     *bool
}

// Apply merges the patch into d.
func (p Patch) Apply(d *Definition) error {
	if p.Interval != nil && p.Crontab != nil {
		return ErrScheduleConflict
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Task != nil {
		d.Task = *p.Task
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Interval != nil {
		d.SetInterval(*p.Interval)
	}
	if p.Crontab != nil {
		d.SetCrontab(*p.Crontab)
	}
	if p.Args != nil {
		if err := d.SetArgs(p.Args); err != nil {
			return err
		}
	}
	if p.Kwargs != nil {
		if err := d.SetKwargs(p.Kwargs); err != nil {
			return err
		}
	}
	if p.Enabled != nil {
		d.Enabled = *p.Enabled
	}
	return nil
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
