package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/dmitrymomot/beat/pkg/logger"
	"github.com/dmitrymomot/beat/pkg/scheduler"
)

// Enqueuer inserts periodic jobs without processing them.
// The beat process uses it; workers run in a separate process.
type Enqueuer struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	logger *slog.Logger
	opts   []EnqueueOption
}

// EnqueuerOption configures the enqueuer.
type EnqueuerOption func(*enqueuerConfig)

type enqueuerConfig struct {
	logger *slog.Logger
	opts   []EnqueueOption
}

// WithEnqueuerLogger sets the logger for the enqueuer.
func WithEnqueuerLogger(l *slog.Logger) EnqueuerOption {
	return func(c *enqueuerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultEnqueueOptions applies opts to every job inserted by Dispatch.
func WithDefaultEnqueueOptions(opts ...EnqueueOption) EnqueuerOption {
	return func(c *enqueuerConfig) {
		c.opts = append(c.opts, opts...)
	}
}

// NewEnqueuer creates an insert-only River client.
func NewEnqueuer(pool *pgxpool.Pool, opts ...EnqueuerOption) (*Enqueuer, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &enqueuerConfig{logger: logger.NewNope()}
	for _, opt := range opts {
		opt(cfg)
	}

	// No Workers and no Queues: the client can only insert.
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create enqueuer client: %w", err)
	}

	return &Enqueuer{
		pool:   pool,
		client: client,
		logger: cfg.logger,
		opts:   cfg.opts,
	}, nil
}

// Enqueue inserts a periodic job. A job with identical args that is still
// pending is not inserted twice.
func (e *Enqueuer) Enqueue(ctx context.Context, args PeriodicArgs, opts ...EnqueueOption) error {
	if strings.TrimSpace(args.Task) == "" {
		return ErrTaskRequired
	}

	res, err := e.client.Insert(ctx, args, insertOpts(args.InsertOpts(), opts...))
	if err != nil {
		return fmt.Errorf("job: enqueue: %w", err)
	}
	e.logInserted(ctx, args, res)
	return nil
}

// EnqueueTx inserts a periodic job within a transaction. The job is only
// visible after the transaction commits.
func (e *Enqueuer) EnqueueTx(ctx context.Context, tx pgx.Tx, args PeriodicArgs, opts ...EnqueueOption) error {
	if strings.TrimSpace(args.Task) == "" {
		return ErrTaskRequired
	}

	res, err := e.client.InsertTx(ctx, tx, args, insertOpts(args.InsertOpts(), opts...))
	if err != nil {
		return fmt.Errorf("job: enqueue tx: %w", err)
	}
	e.logInserted(ctx, args, res)
	return nil
}

// Dispatch enqueues one fire of the dispatch loop.
// It satisfies scheduler.EnqueueFunc.
func (e *Enqueuer) Dispatch(ctx context.Context, d scheduler.Dispatch) error {
	return e.Enqueue(ctx, ArgsFromDispatch(d), e.opts...)
}

func (e *Enqueuer) logInserted(ctx context.Context, args PeriodicArgs, res *rivertype.JobInsertResult) {
	if res == nil || res.Job == nil {
		return
	}
	if res.UniqueSkippedAsDuplicate {
		e.logger.DebugContext(ctx, "periodic job already enqueued",
			slog.String("task", args.Task),
			slog.Int64("job_id", res.Job.ID),
		)
		return
	}
	e.logger.DebugContext(ctx, "periodic job enqueued",
		slog.String("task", args.Task),
		slog.Int64("job_id", res.Job.ID),
	)
}

// ArgsFromDispatch converts a dispatch loop fire into job args.
func ArgsFromDispatch(d scheduler.Dispatch) PeriodicArgs {
	args := PeriodicArgs{
		Task:         d.Task,
		PeriodicName: d.Name,
		Args:         d.Args,
		Kwargs:       d.Kwargs,
		ScheduledAt:  d.ScheduledAt.UTC(),
	}
	if !d.ExpiresAt.IsZero() {
		exp := d.ExpiresAt.UTC()
		args.ExpiresAt = &exp
	}
	return args
}
