// Command periodic manages periodic task definitions stored in PostgreSQL
// and inspects the jobs beat enqueued for them. Definition changes are
// picked up by running beat processes on their next refresh.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/beat/pkg/db"
	"github.com/dmitrymomot/beat/pkg/job"
	"github.com/dmitrymomot/beat/pkg/logger"
	"github.com/dmitrymomot/beat/pkg/periodic/pgstore"
)

type config struct {
	DB  db.Config
	Log logger.Config
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(os.Stdout, usage)
		return nil
	}

	cfg, err := env.ParseAs[config]()
	if err != nil {
		return fmt.Errorf("periodic: invalid configuration: %w", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if args[0] == "migrate" {
		if err := db.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.DB.MigrationsTable, log); err != nil {
			return err
		}
		if err := job.Migrate(ctx, pool, log); err != nil {
			return err
		}
		version, err := db.MigrationVersion(ctx, pool, pgstore.Migrations, cfg.DB.MigrationsTable, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "periodic schema at version %d\n", version)
		return nil
	}

	store, err := pgstore.New(pool, pgstore.WithQueryTimeout(cfg.DB.QueryTimeout))
	if err != nil {
		return err
	}

	enqueuer, err := job.NewEnqueuer(pool, job.WithEnqueuerLogger(log))
	if err != nil {
		return err
	}

	c := &cli{store: store, runs: store, jobs: enqueuer, out: os.Stdout}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return c.run(ctx, args)
}
