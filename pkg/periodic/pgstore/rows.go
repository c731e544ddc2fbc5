package pgstore

import (
	"time"

	"github.com/dmitrymomot/beat/pkg/periodic"
)

// definitionRow maps a periodic_tasks row. Unset schedule columns are NULL.
type definitionRow struct {
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	LastRunAt          *time.Time `db:"last_run_at"`
	IntervalSeconds    *int64     `db:"interval_seconds"`
	CrontabMinute      *string    `db:"crontab_minute"`
	CrontabHour        *string    `db:"crontab_hour"`
	CrontabDayOfWeek   *string    `db:"crontab_day_of_week"`
	CrontabDayOfMonth  *string    `db:"crontab_day_of_month"`
	CrontabMonthOfYear *string    `db:"crontab_month_of_year"`
	Name               string     `db:"name"`
	Task               string     `db:"task"`
	Args               string     `db:"args"`
	Kwargs             string     `db:"kwargs"`
	Description        string     `db:"description"`
	ID                 int64      `db:"id"`
	TotalRunCount      int64      `db:"total_run_count"`
	Enabled            bool       `db:"enabled"`
}

func (r definitionRow) toDefinition() periodic.Definition {
	d := periodic.Definition{
		ID:            r.ID,
		Name:          r.Name,
		Task:          r.Task,
		Args:          r.Args,
		Kwargs:        r.Kwargs,
		Enabled:       r.Enabled,
		LastRunAt:     r.LastRunAt,
		TotalRunCount: r.TotalRunCount,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Crontab: periodic.Crontab{
			Minute:      deref(r.CrontabMinute),
			Hour:        deref(r.CrontabHour),
			DayOfWeek:   deref(r.CrontabDayOfWeek),
			DayOfMonth:  deref(r.CrontabDayOfMonth),
			MonthOfYear: deref(r.CrontabMonthOfYear),
		},
	}
	if r.IntervalSeconds != nil {
		d.Interval = *r.IntervalSeconds
	}
	return d
}

func toRow(d periodic.Definition) definitionRow {
	r := definitionRow{
		Name:               d.Name,
		Task:               d.Task,
		Args:               d.Args,
		Kwargs:             d.Kwargs,
		Enabled:            d.Enabled,
		Description:        d.Description,
		CrontabMinute:      nullable(d.Crontab.Minute),
		CrontabHour:        nullable(d.Crontab.Hour),
		CrontabDayOfWeek:   nullable(d.Crontab.DayOfWeek),
		CrontabDayOfMonth:  nullable(d.Crontab.DayOfMonth),
		CrontabMonthOfYear: nullable(d.Crontab.MonthOfYear),
	}
	if d.Interval > 0 {
		interval := d.Interval
		r.IntervalSeconds = &interval
	}
	return r
}

type runRow struct {
	ScheduledAt time.Time `db:"scheduled_at"`
	EnqueuedAt  time.Time `db:"enqueued_at"`
	TaskName    string    `db:"task_name"`
	Status      string    `db:"status"`
	Error       string    `db:"error"`
	ID          int64     `db:"id"`
}

func (r runRow) toRun() periodic.Run {
	return periodic.Run{
		ID:          r.ID,
		TaskName:    r.TaskName,
		ScheduledAt: r.ScheduledAt,
		EnqueuedAt:  r.EnqueuedAt,
		Status:      r.Status,
		Error:       r.Error,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
