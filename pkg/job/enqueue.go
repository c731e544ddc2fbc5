package job

import "github.com/riverqueue/river"

// enqueueConfig holds options for enqueueing a job.
type enqueueConfig struct {
	queue       string
	tags        []string
	maxAttempts int
	priority    int
}

// EnqueueOption configures job enqueueing.
type EnqueueOption func(*enqueueConfig)

// InQueue specifies which queue to use for the job.
// If not specified, the default queue is used.
func InQueue(name string) EnqueueOption {
	return func(c *enqueueConfig) {
		if name != "" {
			c.queue = name
		}
	}
}

// MaxAttempts sets the maximum number of attempts for the job.
// Defaults to River's default (25 attempts).
func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Priority sets the job priority (1 is highest, 4 is lowest).
func Priority(p int) EnqueueOption {
	return func(c *enqueueConfig) {
		if p > 0 {
			c.priority = p
		}
	}
}

// Tags adds metadata tags to the job.
//
// Example:
//
//	enq.Enqueue(ctx, args, job.Tags("reports", "nightly"))
func Tags(tags ...string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.tags = append(c.tags, tags...)
	}
}

// insertOpts merges enqueue options over the defaults of PeriodicArgs.
func insertOpts(base river.InsertOpts, opts ...EnqueueOption) *river.InsertOpts {
	cfg := &enqueueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	out := base
	if cfg.queue != "" {
		out.Queue = cfg.queue
	}
	if cfg.maxAttempts > 0 {
		out.MaxAttempts = cfg.maxAttempts
	}
	if cfg.priority > 0 {
		out.Priority = cfg.priority
	}
	if len(cfg.tags) > 0 {
		out.Tags = cfg.tags
	}
	return &out
}
