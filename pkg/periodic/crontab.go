package periodic

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Wildcard matches every value of a crontab field.
const Wildcard = "*"

var crontabParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Crontab is a five-field recurring time pattern.
// An empty field is stored as unset and matches any value.
type Crontab struct {
	Minute      string `json:"minute,omitempty"`
	Hour        string `json:"hour,omitempty"`
	DayOfWeek   string `json:"day_of_week,omitempty"`
	DayOfMonth  string `json:"day_of_month,omitempty"`
	MonthOfYear string `json:"month_of_year,omitempty"`
}

// IsZero reports whether every field is unset.
func (c Crontab) IsZero() bool {
	return c.Minute == "" && c.Hour == "" && c.DayOfWeek == "" &&
		c.DayOfMonth == "" && c.MonthOfYear == ""
}

// Expression returns the standard cron expression
// "minute hour day-of-month month day-of-week", with unset fields
// replaced by the wildcard.
func (c Crontab) Expression() string {
	return strings.Join([]string{
		orWildcard(c.Minute),
		orWildcard(c.Hour),
		orWildcard(c.DayOfMonth),
		orWildcard(c.MonthOfYear),
		orWildcard(c.DayOfWeek),
	}, " ")
}

// Schedule parses the crontab into a cron schedule. When both day of
// month and day of week are restricted, a day must match both.
func (c Crontab) Schedule() (cron.Schedule, error) {
	for _, f := range []string{c.Minute, c.Hour, c.DayOfWeek, c.DayOfMonth, c.MonthOfYear} {
		if strings.ContainsAny(f, " \t\n") {
			return nil, errors.Join(ErrInvalidCrontab, errors.New("field contains whitespace: "+f))
		}
	}
	sched, err := crontabParser.Parse(c.Expression())
	if err != nil {
		return nil, errors.Join(ErrInvalidCrontab, err)
	}
	if spec, ok := sched.(*cron.SpecSchedule); ok {
		return bothDays{spec}, nil
	}
	return sched, nil
}

// dayHorizon bounds the search for a day matching both day fields.
// Day 29 of February on a given weekday recurs every 28 years.
const dayHorizon = 30 * 366 * 24 * time.Hour

// bothDays narrows a cron schedule so that day of month and day of week
// must both match. The cron package matches either one when both are
// restricted.
type bothDays struct {
	spec *cron.SpecSchedule
}

// Next returns the next activation time, or the zero time when no day
// within the horizon matches.
func (b bothDays) Next(t time.Time) time.Time {
	limit := t.Add(dayHorizon)
	for {
		t = b.spec.Next(t)
		if t.IsZero() || t.After(limit) {
			return time.Time{}
		}

		local := t
		if b.spec.Location != time.Local {
			local = t.In(b.spec.Location)
		}
		if 1<<uint(local.Day())&b.spec.Dom != 0 && 1<<uint(local.Weekday())&b.spec.Dow != 0 {
			return t
		}

		y, m, d := local.Date()
		t = time.Date(y, m, d+1, 0, 0, 0, 0, local.Location()).Add(-time.Second)
	}
}

func orWildcard(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return Wildcard
	}
	return field
}
