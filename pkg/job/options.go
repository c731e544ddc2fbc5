package job

import (
	"context"
	"log/slog"
	"time"
)

// config holds job manager configuration.
type config struct {
	registry   *taskRegistry
	queues     map[string]int
	logger     *slog.Logger
	now        func() time.Time
	maxWorkers int
}

func newConfig() *config {
	return &config{
		registry: newTaskRegistry(),
		queues:   make(map[string]int),
		now:      time.Now,
	}
}

// Option configures the job manager.
type Option func(*config)

// WithTask registers a typed task handler using structural typing.
// Name() must match the task column of the periodic definitions that
// should run it. Keyword arguments are decoded into P.
//
// Example:
//
//	type BuildReport struct{ repo *reports.Repo }
//
//	type BuildReportPayload struct {
//	    Period string `json:"period"`
//	}
//
//	func (t *BuildReport) Name() string { return "reports.build" }
//	func (t *BuildReport) Handle(ctx context.Context, p BuildReportPayload) error {
//	    return t.repo.Build(ctx, p.Period)
//	}
//
//	job.WithTask[BuildReportPayload](&BuildReport{repo: repo})
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), newTaskWrapper[P, T](task))
	}
}

// WithHandler registers a handler that receives the full Call, including
// positional arguments and scheduling metadata.
func WithHandler(name string, fn HandlerFunc) Option {
	return func(c *config) {
		if name != "" && fn != nil {
			c.registry.register(name, fn)
		}
	}
}

// WithQueue configures a named queue with the specified number of workers.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if name != "" && workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
// Defaults to 100 if not set.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}
