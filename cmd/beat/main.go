// Command beat runs the periodic task scheduler. It loads enabled periodic
// task definitions from PostgreSQL and enqueues due fires as River jobs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/beat"
	"github.com/dmitrymomot/beat/middlewares"
	"github.com/dmitrymomot/beat/pkg/db"
	"github.com/dmitrymomot/beat/pkg/job"
	"github.com/dmitrymomot/beat/pkg/logger"
	"github.com/dmitrymomot/beat/pkg/periodic/pgstore"
	"github.com/dmitrymomot/beat/pkg/redis"
	"github.com/dmitrymomot/beat/pkg/scheduler"
)

type config struct {
	DB    db.Config
	Redis redis.Config
	Log   logger.Config

	Address         string        `env:"BEAT_ADDRESS" envDefault:":8080"`
	Queue           string        `env:"BEAT_QUEUE"`
	LockKey         string        `env:"BEAT_LOCK_KEY" envDefault:"beat:leader"`
	MaxStaleness    time.Duration `env:"BEAT_MAX_STALENESS" envDefault:"1m"`
	Expires         time.Duration `env:"BEAT_TASK_EXPIRES" envDefault:"60s"`
	LoopInterval    time.Duration `env:"BEAT_LOOP_INTERVAL" envDefault:"1s"`
	LockTTL         time.Duration `env:"BEAT_LOCK_TTL" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"BEAT_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		fmt.Fprintln(os.Stderr, "beat: invalid configuration:", err)
		os.Exit(2)
	}

	log := logger.New(cfg.Log, append(logger.DefaultExtractors(), middlewares.RequestIDExtractor())...)
	defer logger.Flush(2 * time.Second)

	if err := run(cfg, log); err != nil {
		log.Error("beat stopped with error", "error", err)
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg config, log *slog.Logger) error {
	ctx := logger.WithComponent(context.Background(), "beat")

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}

	store, err := pgstore.New(pool, pgstore.WithQueryTimeout(cfg.DB.QueryTimeout))
	if err != nil {
		pool.Close()
		return err
	}

	enqueueOpts := []job.EnqueueOption{}
	if cfg.Queue != "" {
		enqueueOpts = append(enqueueOpts, job.InQueue(cfg.Queue))
	}
	enqueuer, err := job.NewEnqueuer(pool,
		job.WithEnqueuerLogger(log),
		job.WithDefaultEnqueueOptions(enqueueOpts...),
	)
	if err != nil {
		pool.Close()
		return err
	}

	sched := scheduler.New(store,
		scheduler.WithLogger(log),
		scheduler.WithStaleness(cfg.MaxStaleness),
		scheduler.WithExpires(cfg.Expires),
	)

	loopOpts := []scheduler.LoopOption{
		scheduler.WithInterval(cfg.LoopInterval),
		scheduler.WithLoopLogger(log),
		scheduler.WithRecorder(store),
	}
	appOpts := []beat.Option{
		beat.WithContext(ctx),
		beat.WithLogger(log),
		beat.WithAddress(cfg.Address),
		beat.WithShutdownTimeout(cfg.ShutdownTimeout),
		beat.WithMaxScheduleAge(3 * cfg.MaxStaleness),
		beat.WithScheduler(sched),
		beat.WithHealthCheck("postgres", db.Healthcheck(pool)),
		beat.WithHealthCheck("queue", job.EnqueuerHealthcheck(enqueuer)),
	}

	if cfg.DB.AutoMigrate {
		appOpts = append(appOpts, beat.WithStartupHook(func(ctx context.Context) error {
			if err := db.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.DB.MigrationsTable, log); err != nil {
				return err
			}
			return job.Migrate(ctx, pool, log)
		}))
	}

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return err
		}
		lock, err := redis.NewLock(client, cfg.LockKey, redis.WithLockTTL(cfg.LockTTL))
		if err != nil {
			_ = client.Close()
			pool.Close()
			return err
		}
		log.InfoContext(ctx, "leader election enabled",
			slog.String("lock_key", cfg.LockKey),
			slog.String("owner", lock.Owner()),
		)
		loopOpts = append(loopOpts, scheduler.WithLocker(lock))
		appOpts = append(appOpts,
			beat.WithHealthCheck("redis", redis.Healthcheck(client)),
			beat.WithShutdownHook(redis.Shutdown(client)),
		)
	}

	loop, err := scheduler.NewLoop(sched, enqueuer.Dispatch, loopOpts...)
	if err != nil {
		pool.Close()
		return err
	}

	appOpts = append(appOpts,
		beat.WithLoop(loop),
		beat.WithShutdownHook(db.Shutdown(pool)),
	)

	return beat.New(appOpts...).Run()
}
