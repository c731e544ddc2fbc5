package beat

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/beat/middlewares"
	"github.com/dmitrymomot/beat/pkg/health"
	"github.com/dmitrymomot/beat/pkg/logger"
	"github.com/dmitrymomot/beat/pkg/scheduler"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Runner is a blocking component that stops when its context is cancelled,
// such as scheduler.Loop.
type Runner interface {
	Run(ctx context.Context) error
}

// App runs one beat process: it loads the schedule, drives the dispatch
// loop and serves health and schedule endpoints until shutdown.
// App is immutable after creation; configure it through New.
type App struct {
	baseCtx context.Context
	logger  *slog.Logger

	server   *http.Server
	router   chi.Router
	routes   sync.Once
	listenMu sync.Mutex
	listener net.Listener

	scheduler      *scheduler.Scheduler
	loop           Runner
	checks         health.Checks
	livenessPath   string
	readinessPath  string
	schedulePath   string
	maxScheduleAge time.Duration

	shutdownTimeout time.Duration
	startupHooks    []func(ctx context.Context) error
	shutdownHooks   []func(ctx context.Context) error
	done            chan struct{}
	stopOnce        sync.Once
}

// New creates an App with the given options.
//
// Example:
//
//	app := beat.New(
//	    beat.WithLogger(log),
//	    beat.WithAddress(":8080"),
//	    beat.WithScheduler(sched),
//	    beat.WithLoop(loop),
//	    beat.WithHealthCheck("postgres", db.Healthcheck(pool)),
//	    beat.WithShutdownHook(db.Shutdown(pool)),
//	)
func New(opts ...Option) *App {
	router := chi.NewRouter()

	a := &App{
		logger:          logger.NewNope(),
		router:          router,
		checks:          make(health.Checks),
		livenessPath:    "/health/live",
		readinessPath:   "/health/ready",
		schedulePath:    "/schedule",
		maxScheduleAge:  3 * scheduler.DefaultStaleness,
		shutdownTimeout: defaultShutdownTimeout,
		done:            make(chan struct{}),
		server: &http.Server{
			Addr:              ":8080",
			Handler:           router,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			MaxHeaderBytes:    defaultMaxHeaderBytes,
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Addr returns the address the server listens on, or an empty string
// before Run has bound it.
func (a *App) Addr() string {
	a.listenMu.Lock()
	defer a.listenMu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Handler returns the HTTP handler serving health and schedule endpoints.
func (a *App) Handler() http.Handler {
	a.routes.Do(a.setupRoutes)
	return a.router
}

func (a *App) setupRoutes() {
	checks := make(health.Checks, len(a.checks)+1)
	for name, fn := range a.checks {
		checks[name] = fn
	}
	if a.scheduler != nil {
		if _, ok := checks["scheduler"]; !ok {
			checks["scheduler"] = a.scheduler.Healthcheck(a.maxScheduleAge)
		}
	}

	a.router.Use(
		middlewares.RequestID(),
		middlewares.Recover(middlewares.WithRecoverLogger(a.logger)),
	)

	a.router.Get(a.livenessPath, health.LivenessHandler())
	a.router.Get(a.readinessPath, health.ReadinessHandler(checks, health.WithLogger(a.logger)))

	if a.scheduler != nil {
		a.router.Get(a.schedulePath, scheduleHandler(a.scheduler))
	}
}
