// Package job connects the beat scheduler to River, a Postgres-native job
// queue.
//
// Every periodic fire becomes one River job of kind "beat:periodic" whose
// arguments carry the task name, the periodic definition it came from, the
// positional and keyword arguments, the scheduled time and an optional
// expiration time. Jobs are unique by their arguments, so two beat processes
// enqueueing the same fire insert a single job.
//
// # Enqueueing
//
// The beat process uses an insert-only Enqueuer. Its Dispatch method matches
// scheduler.EnqueueFunc:
//
//	enq, err := job.NewEnqueuer(pool, job.WithEnqueuerLogger(log))
//	if err != nil {
//	    return err
//	}
//	loop, err := scheduler.NewLoop(sched, enq.Dispatch)
//
// # Workers
//
// A Manager runs River workers and routes each job to the handler
// registered under its task name:
//
//	type BuildReport struct{ repo *reports.Repo }
//
//	type BuildReportPayload struct {
//	    Period string `json:"period"`
//	}
//
//	func (t *BuildReport) Name() string { return "reports.build" }
//
//	func (t *BuildReport) Handle(ctx context.Context, p BuildReportPayload) error {
//	    return t.repo.Build(ctx, p.Period)
//	}
//
//	manager, err := job.NewManager(pool,
//	    job.WithTask[BuildReportPayload](&BuildReport{repo: repo}),
//	    job.WithHandler("cache.warm", warmCache),
//	    job.WithQueue("reports", 4),
//	    job.WithLogger(log),
//	)
//
// WithTask decodes keyword arguments into the handler's payload type.
// WithHandler receives the raw Call with positional arguments as well.
//
// Jobs picked up after their expiration time are cancelled without running.
// Jobs for tasks with no registered handler are cancelled too; River does
// not retry either case.
//
// # Schema
//
// River keeps its own tables. Migrate applies River's migrations and is
// safe to run on every start.
//
// # Health
//
// Healthcheck and EnqueuerHealthcheck return functions compatible with
// health.CheckFunc.
package job
