// Package scheduler turns periodic task definitions stored in a database
// into a live in-memory schedule and dispatches due entries to a task queue.
//
// A Scheduler reads enabled definitions through periodic.Reader and keeps
// them as Entry values keyed by definition name. Each Entry pairs a
// Predicate (an Every interval or a Cron expression) with the task name,
// its arguments and an expiration window.
//
// The schedule is reloaded lazily: Tick queries the store only when the
// last successful refresh is older than the staleness window (one minute by
// default). A failed query keeps the previous schedule and is retried after
// a short backoff. Definitions that cannot be turned into entries, such as a
// crontab that does not parse or arguments that are not JSON, are logged and
// skipped without affecting the rest of the schedule.
//
// # Usage
//
//	store, _ := pgstore.New(pool)
//	sched := scheduler.New(store, scheduler.WithLogger(log))
//	sched.Initialize(ctx)
//
//	loop, err := scheduler.NewLoop(sched, enqueuer.Dispatch,
//		scheduler.WithRecorder(store),
//		scheduler.WithLoopLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	return loop.Run(ctx)
//
// # Dispatch loop
//
// Loop wakes up every second, ticks the source and compares each entry's
// next fire time with the clock. Due fires are passed to an EnqueueFunc as a
// Dispatch carrying the scheduled time and, when the entry has an
// expiration window, the time after which the work is no longer useful.
// Fires observed later than the window are dropped and recorded as expired.
//
// Only one beat process should dispatch at a time. Pass WithLocker to gate
// dispatch on a distributed lock when running more than one replica.
//
// # Health
//
// Healthcheck returns a function compatible with health.CheckFunc that fails
// when the schedule has never loaded or has not been refreshed recently.
package scheduler
