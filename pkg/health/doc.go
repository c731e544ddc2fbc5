// Package health serves liveness and readiness probes for the beat and
// worker processes.
//
// Checks are plain func(context.Context) error values, so the Healthcheck
// closures of the db, redis, job and scheduler packages plug in directly:
//
//	checks := health.Checks{
//	    "postgres":  db.Healthcheck(pool),
//	    "scheduler": sched.Healthcheck(3 * time.Minute),
//	    "redis":     redis.Healthcheck(client),
//	}
//
//	r := chi.NewRouter()
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(log)))
//
// Checks run concurrently under a shared timeout (5s by default). Handlers
// respond with plain "OK" / "Service Unavailable" unless JSON is requested
// with ?format=json or an Accept: application/json header:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "postgres":  {"status": "healthy"},
//	    "scheduler": {"status": "unhealthy", "error": "scheduler: schedule is stale"}
//	  }
//	}
//
// Run executes the same checks without HTTP and is used by the management
// CLI.
package health
