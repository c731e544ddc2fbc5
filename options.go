package beat

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/beat/pkg/health"
	"github.com/dmitrymomot/beat/pkg/scheduler"
)

// Option configures the application.
type Option func(*App)

// WithContext sets a custom base context for signal handling.
// Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.baseCtx = ctx
		}
	}
}

// WithLogger sets the application logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAddress sets the HTTP server address.
// Defaults to ":8080".
func WithAddress(addr string) Option {
	return func(a *App) {
		if addr != "" {
			a.server.Addr = addr
		}
	}
}

// WithReadTimeout sets the HTTP server read timeout.
// Defaults to 15 seconds.
func WithReadTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.server.ReadTimeout = d
		}
	}
}

// WithWriteTimeout sets the HTTP server write timeout.
// Defaults to 30 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.server.WriteTimeout = d
		}
	}
}

// WithShutdownTimeout bounds server shutdown and the shutdown hooks.
// Defaults to 30 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithScheduler sets the scheduler. Run initializes it before serving and
// exposes its schedule and freshness over HTTP.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(a *App) {
		if s != nil {
			a.scheduler = s
		}
	}
}

// WithLoop sets the dispatch loop run alongside the HTTP server.
func WithLoop(r Runner) Option {
	return func(a *App) {
		if r != nil {
			a.loop = r
		}
	}
}

// WithHealthCheck adds a named readiness check.
func WithHealthCheck(name string, fn health.CheckFunc) Option {
	return func(a *App) {
		if name != "" && fn != nil {
			a.checks[name] = fn
		}
	}
}

// WithMaxScheduleAge sets how old the schedule may get before readiness
// fails. Defaults to three staleness windows.
func WithMaxScheduleAge(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.maxScheduleAge = d
		}
	}
}

// WithHealthPaths overrides the liveness and readiness endpoints.
// Defaults to "/health/live" and "/health/ready".
func WithHealthPaths(liveness, readiness string) Option {
	return func(a *App) {
		if liveness != "" {
			a.livenessPath = liveness
		}
		if readiness != "" {
			a.readinessPath = readiness
		}
	}
}

// WithStartupHook registers a function run before the scheduler is
// initialized. Hooks run in registration order; the first error aborts Run.
//
// Example:
//
//	beat.WithStartupHook(func(ctx context.Context) error {
//	    return db.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.MigrationsTable, log)
//	})
func WithStartupHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.startupHooks = append(a.startupHooks, fn)
		}
	}
}

// WithShutdownHook registers a cleanup function run after the loop and
// server have stopped. Hooks run in registration order.
//
// Example:
//
//	beat.WithShutdownHook(db.Shutdown(pool))
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.shutdownHooks = append(a.shutdownHooks, fn)
		}
	}
}
