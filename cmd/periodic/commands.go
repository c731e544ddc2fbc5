package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrymomot/beat/pkg/job"
	"github.com/dmitrymomot/beat/pkg/periodic"
)

var (
	errUsage            = errors.New("periodic: invalid usage")
	errScheduleRequired = errors.New("periodic: -interval or at least one crontab field is required")
)

const usage = `Usage: periodic <command> [flags]

Commands:
  list                  list all periodic tasks
  show <id|name>        print one periodic task as JSON
  add [flags]           create a periodic task
  update <id|name>      change the given fields of a periodic task
  enable <id|name>      enable a periodic task
  disable <id|name>     disable a periodic task
  delete <id|name>      delete a periodic task
  runs [flags]          list recent dispatches
  jobs [flags]          list enqueued periodic jobs and their state
  job <id>              print one periodic job with its attempt errors
  migrate               apply database migrations

Schedule flags (add, update):
  -interval N           run every N seconds
  -minute, -hour, -day-of-week, -day-of-month, -month-of-year
                        crontab fields, unset fields match any value

Other flags (add, update):
  -name, -task, -description
  -args "a,b"           positional arguments
  -kwargs "k:v,k2:v2"   keyword arguments
  -disabled             create the task disabled (add only)

Job flags (jobs):
  -status STATE         available, cancelled, completed, discarded,
                        pending, retryable, running or scheduled
  -task NAME            task or periodic task name
  -since DURATION       only jobs created within this duration
  -limit N              maximum number of jobs (default 20)
`

// jobHistory reads enqueued periodic jobs from the queue.
type jobHistory interface {
	ListJobs(ctx context.Context, f job.HistoryFilter) ([]job.Record, error)
	GetJob(ctx context.Context, id int64) (job.Record, error)
}

// cli executes management commands against a definition store.
type cli struct {
	store periodic.Store
	runs  periodic.RunRecorder
	jobs  jobHistory
	out   io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return c.list(ctx)
	case "show":
		return c.show(ctx, rest)
	case "add":
		return c.add(ctx, rest)
	case "update":
		return c.update(ctx, rest)
	case "enable":
		return c.setEnabled(ctx, rest, true)
	case "disable":
		return c.setEnabled(ctx, rest, false)
	case "delete":
		return c.delete(ctx, rest)
	case "runs":
		return c.listRuns(ctx, rest)
	case "jobs":
		return c.listJobs(ctx, rest)
	case "job":
		return c.showJob(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.out, usage)
		return nil
	default:
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (c *cli) list(ctx context.Context) error {
	defs, err := c.store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTASK\tSCHEDULE\tENABLED\tLAST RUN\tRUNS")
	for _, d := range defs {
		lastRun := "-"
		if d.LastRunAt != nil {
			lastRun = d.LastRunAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\t%d\n",
			d.ID, d.Name, d.Task, d.ScheduleString(), d.Enabled, lastRun, d.TotalRunCount)
	}
	return tw.Flush()
}

func (c *cli) show(ctx context.Context, args []string) error {
	def, err := c.resolve(ctx, args)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(def)
}

// definitionFlags holds the flags shared by add and update.
type definitionFlags struct {
	crontab     periodic.Crontab
	name        string
	task        string
	description string
	args        string
	kwargs      string
	interval    int64
	disabled    bool
}

func newDefinitionFlagSet(name string, out io.Writer) (*flag.FlagSet, *definitionFlags) {
	f := &definitionFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.name, "name", "", "unique task name")
	fs.StringVar(&f.task, "task", "", "task reference resolved by workers")
	fs.StringVar(&f.description, "description", "", "free-form description")
	fs.Int64Var(&f.interval, "interval", 0, "run every N seconds")
	fs.StringVar(&f.crontab.Minute, "minute", "", "crontab minute field")
	fs.StringVar(&f.crontab.Hour, "hour", "", "crontab hour field")
	fs.StringVar(&f.crontab.DayOfWeek, "day-of-week", "", "crontab day of week field")
	fs.StringVar(&f.crontab.DayOfMonth, "day-of-month", "", "crontab day of month field")
	fs.StringVar(&f.crontab.MonthOfYear, "month-of-year", "", "crontab month field")
	fs.StringVar(&f.args, "args", "", `positional arguments, e.g. "a,b"`)
	fs.StringVar(&f.kwargs, "kwargs", "", `keyword arguments, e.g. "k:v,k2:v2"`)
	if name == "add" {
		fs.BoolVar(&f.disabled, "disabled", false, "create the task disabled")
	}
	return fs, f
}

var crontabFlags = []string{"minute", "hour", "day-of-week", "day-of-month", "month-of-year"}

// buildDefinition turns add flags into a new definition.
func buildDefinition(f *definitionFlags) (periodic.Definition, error) {
	def := periodic.Definition{
		Name:        f.name,
		Task:        f.task,
		Description: f.description,
		Enabled:     !f.disabled,
	}

	switch {
	case f.interval != 0 && !f.crontab.IsZero():
		return periodic.Definition{}, periodic.ErrScheduleConflict
	case f.interval != 0:
		def.SetInterval(f.interval)
	case !f.crontab.IsZero():
		def.SetCrontab(f.crontab)
	default:
		return periodic.Definition{}, errScheduleRequired
	}

	if err := def.SetArgs(periodic.ParseArgList(f.args)); err != nil {
		return periodic.Definition{}, err
	}
	if err := def.SetKwargs(periodic.ParseKwargList(f.kwargs)); err != nil {
		return periodic.Definition{}, err
	}
	return def, nil
}

// buildPatch turns the flags explicitly given to update into a patch.
// Crontab fields that are not given are reset to match any value.
func buildPatch(fs *flag.FlagSet, f *definitionFlags) periodic.Patch {
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	var p periodic.Patch
	if set["name"] {
		p.Name = &f.name
	}
	if set["task"] {
		p.Task = &f.task
	}
	if set["description"] {
		p.Description = &f.description
	}
	if set["interval"] {
		p.Interval = &f.interval
	}
	for _, name := range crontabFlags {
		if set[name] {
			p.Crontab = &f.crontab
			break
		}
	}
	if set["args"] {
		p.Args = periodic.ParseArgList(f.args)
		if p.Args == nil {
			p.Args = []string{}
		}
	}
	if set["kwargs"] {
		p.Kwargs = periodic.ParseKwargList(f.kwargs)
	}
	return p
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs, f := newDefinitionFlagSet("add", c.out)
	if err := fs.Parse(args); err != nil {
		return errors.Join(errUsage, err)
	}

	def, err := buildDefinition(f)
	if err != nil {
		return err
	}
	def, err = c.store.Create(ctx, def)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "created periodic task %d %q (%s)\n", def.ID, def.Name, def.ScheduleString())
	return nil
}

func (c *cli) update(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: update requires an id or name", errUsage)
	}
	def, err := c.resolve(ctx, args[:1])
	if err != nil {
		return err
	}

	fs, f := newDefinitionFlagSet("update", c.out)
	if err := fs.Parse(args[1:]); err != nil {
		return errors.Join(errUsage, err)
	}

	patch := buildPatch(fs, f)
	def, err = c.store.Update(ctx, def.ID, patch)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "updated periodic task %d %q (%s)\n", def.ID, def.Name, def.ScheduleString())
	return nil
}

func (c *cli) setEnabled(ctx context.Context, args []string, enabled bool) error {
	def, err := c.resolve(ctx, args)
	if err != nil {
		return err
	}
	if _, err := c.store.Update(ctx, def.ID, periodic.Patch{Enabled: &enabled}); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(c.out, "%s periodic task %d %q\n", state, def.ID, def.Name)
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	def, err := c.resolve(ctx, args)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, def.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted periodic task %d %q\n", def.ID, def.Name)
	return nil
}

func (c *cli) listRuns(ctx context.Context, args []string) error {
	var filter periodic.RunFilter
	var since time.Duration

	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(c.out)
	fs.StringVar(&filter.TaskName, "name", "", "filter by periodic task name")
	fs.StringVar(&filter.Status, "status", "", "filter by status: enqueued, expired or failed")
	fs.IntVar(&filter.Limit, "limit", 20, "maximum number of runs")
	fs.DurationVar(&since, "since", 0, "only runs enqueued within this duration")
	if err := fs.Parse(args); err != nil {
		return errors.Join(errUsage, err)
	}
	if since > 0 {
		filter.Since = time.Now().Add(-since)
	}

	runs, err := c.runs.ListRuns(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSCHEDULED\tENQUEUED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.TaskName, r.Status,
			r.ScheduledAt.UTC().Format(time.RFC3339),
			r.EnqueuedAt.UTC().Format(time.RFC3339),
			r.Error,
		)
	}
	return tw.Flush()
}

func (c *cli) listJobs(ctx context.Context, args []string) error {
	var filter job.HistoryFilter
	var since time.Duration

	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	fs.SetOutput(c.out)
	fs.StringVar(&filter.State, "status", "", "filter by job state")
	fs.StringVar(&filter.Task, "task", "", "filter by task or periodic task name")
	fs.IntVar(&filter.Limit, "limit", job.DefaultHistoryLimit, "maximum number of jobs")
	fs.DurationVar(&since, "since", 0, "only jobs created within this duration")
	if err := fs.Parse(args); err != nil {
		return errors.Join(errUsage, err)
	}
	if _, err := job.ParseState(filter.State); err != nil {
		return errors.Join(errUsage, err)
	}
	if since > 0 {
		filter.Since = time.Now().Add(-since)
	}

	jobs, err := c.jobs.ListJobs(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPERIODIC\tTASK\tSTATE\tATTEMPT\tSCHEDULED\tFINALIZED")
	for _, j := range jobs {
		finalized := "-"
		if j.FinalizedAt != nil {
			finalized = j.FinalizedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			j.ID, j.Periodic, j.Task, j.State, j.Attempt, j.MaxAttempts,
			j.ScheduledAt.UTC().Format(time.RFC3339), finalized,
		)
	}
	return tw.Flush()
}

func (c *cli) showJob(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: job requires an id", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid job id %q", errUsage, args[0])
	}

	rec, err := c.jobs.GetJob(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// resolve looks a definition up by numeric ID, falling back to its name.
func (c *cli) resolve(ctx context.Context, args []string) (periodic.Definition, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return periodic.Definition{}, fmt.Errorf("%w: id or name is required", errUsage)
	}
	if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
		return c.store.Get(ctx, id)
	}
	return c.store.GetByName(ctx, args[0])
}
