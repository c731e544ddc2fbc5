package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/dmitrymomot/beat/pkg/logger"
)

// periodicWorker runs every beat:periodic job through the task registry.
type periodicWorker struct {
	river.WorkerDefaults[PeriodicArgs]
	registry *taskRegistry
	logger   *slog.Logger
	now      func() time.Time
}

func (w *periodicWorker) Work(ctx context.Context, job *river.Job[PeriodicArgs]) error {
	args := job.Args
	ctx = logger.WithDefinition(ctx, args.PeriodicName)

	if args.Expired(w.now()) {
		w.logger.WarnContext(ctx, "discarding expired periodic job",
			slog.String("task", args.Task),
			slog.Int64("job_id", job.ID),
			slog.Time("expires_at", *args.ExpiresAt),
		)
		return river.JobCancel(fmt.Errorf("%w: %s", ErrExpired, args.Task))
	}

	executor, ok := w.registry.get(args.Task)
	if !ok || executor == nil {
		w.logger.ErrorContext(ctx, "no handler registered for periodic task",
			slog.String("task", args.Task),
			slog.Int64("job_id", job.ID),
		)
		return river.JobCancel(fmt.Errorf("%w: %s", ErrUnknownTask, args.Task))
	}

	w.logger.DebugContext(ctx, "executing task",
		slog.String("task", args.Task),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	if err := executor.Execute(ctx, args.call(job.ID, job.Attempt)); err != nil {
		w.logger.ErrorContext(ctx, "task failed",
			slog.String("task", args.Task),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}

	w.logger.DebugContext(ctx, "task completed",
		slog.String("task", args.Task),
		slog.Int64("job_id", job.ID),
	)
	return nil
}
