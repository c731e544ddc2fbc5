// Package beat runs a database-backed periodic task scheduler on top of
// River.
//
// Periodic task definitions live in PostgreSQL (see pkg/periodic and
// pkg/periodic/pgstore) and are edited at runtime with the periodic CLI.
// The beat process keeps an in-memory schedule built from the enabled
// definitions, reloads it at most once a minute and enqueues each due fire
// as a River job. Workers started with cmd/worker execute the jobs.
//
// # Quick Start
//
//	store, _ := pgstore.New(pool)
//	sched := scheduler.New(store, scheduler.WithLogger(log))
//
//	enq, _ := job.NewEnqueuer(pool, job.WithEnqueuerLogger(log))
//	loop, _ := scheduler.NewLoop(sched, enq.Dispatch,
//	    scheduler.WithRecorder(store),
//	    scheduler.WithLoopLogger(log),
//	)
//
//	app := beat.New(
//	    beat.WithLogger(log),
//	    beat.WithScheduler(sched),
//	    beat.WithLoop(loop),
//	    beat.WithHealthCheck("postgres", db.Healthcheck(pool)),
//	    beat.WithShutdownHook(db.Shutdown(pool)),
//	)
//
//	if err := app.Run(); err != nil {
//	    log.Error("beat stopped", slog.Any("error", err))
//	}
//
// # Lifecycle
//
// Run executes startup hooks (migrations, for example), initializes the
// scheduler, then serves HTTP and drives the dispatch loop until SIGINT,
// SIGTERM or Stop. A scheduler that cannot reach the database at startup
// begins with an empty schedule and keeps retrying; the process does not
// exit.
//
// # Endpoints
//
//	GET /health/live   always OK while the process serves HTTP
//	GET /health/ready  registered checks plus schedule freshness
//	GET /schedule      the materialized schedule as JSON
//
// # Running more than one beat
//
// Pass a Redis lock to the loop with scheduler.WithLocker so only one
// replica dispatches. River's by-args uniqueness also collapses duplicate
// inserts of the same fire.
package beat
