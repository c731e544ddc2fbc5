// Command worker executes periodic jobs enqueued by beat. It ships the
// built-in beat.log and beat.webhook tasks; services with their own task
// handlers embed pkg/job directly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/beat/middlewares"
	"github.com/dmitrymomot/beat/pkg/db"
	"github.com/dmitrymomot/beat/pkg/health"
	"github.com/dmitrymomot/beat/pkg/job"
	"github.com/dmitrymomot/beat/pkg/logger"
)

type config struct {
	DB  db.Config
	Log logger.Config

	Address         string        `env:"WORKER_ADDRESS" envDefault:":8081"`
	Queues          []string      `env:"WORKER_QUEUES" envSeparator:","`
	MaxWorkers      int           `env:"WORKER_MAX_WORKERS" envDefault:"100"`
	WebhookTimeout  time.Duration `env:"WORKER_WEBHOOK_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"WORKER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		fmt.Fprintln(os.Stderr, "worker: invalid configuration:", err)
		os.Exit(2)
	}

	log := logger.New(cfg.Log, append(logger.DefaultExtractors(), middlewares.RequestIDExtractor())...)
	defer logger.Flush(2 * time.Second)

	if err := run(cfg, log); err != nil {
		log.Error("worker stopped with error", "error", err)
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(
		logger.WithComponent(context.Background(), "worker"),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := job.Migrate(ctx, pool, log); err != nil {
			return err
		}
	}

	opts := []job.Option{
		job.WithLogger(log),
		job.WithMaxWorkers(cfg.MaxWorkers),
		job.WithHandler(TaskLog, logTask(log)),
		job.WithHandler(TaskWebhook, webhookTask(&http.Client{Timeout: cfg.WebhookTimeout})),
	}
	for _, q := range cfg.Queues {
		opts = append(opts, job.WithQueue(q, cfg.MaxWorkers))
	}

	manager, err := job.NewManager(pool, opts...)
	if err != nil {
		return err
	}
	if err := manager.Start(ctx); err != nil {
		return err
	}

	checks := health.Checks{
		"postgres": db.Healthcheck(pool),
		"worker":   job.Healthcheck(manager),
	}
	r := chi.NewRouter()
	r.Use(middlewares.RequestID(), middlewares.Recover(middlewares.WithRecoverLogger(log)))
	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(log)))

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "worker health server listening", slog.String("address", cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return errors.Join(
			server.Shutdown(shutdownCtx),
			manager.Stop(shutdownCtx),
		)
	})

	return g.Wait()
}
