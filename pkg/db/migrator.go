package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/beat/pkg/logger"
)

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Migrate applies all pending goose migrations found in dir of fsys.
// The pool is bridged to database/sql and left open: stdlib.OpenDBFromPool
// shares the pool's connections.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, dir, table string, log *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configureGoose(fsys, table, log); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, stdlib.OpenDBFromPool(pool), dir); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

// MigrationVersion returns the current schema version.
func MigrationVersion(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, table string, log *slog.Logger) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configureGoose(fsys, table, log); err != nil {
		return 0, err
	}

	v, err := goose.GetDBVersionContext(ctx, stdlib.OpenDBFromPool(pool))
	if err != nil {
		return 0, errors.Join(ErrMigrationsStatus, err)
	}
	return v, nil
}

func configureGoose(fsys fs.FS, table string, log *slog.Logger) error {
	if log == nil {
		log = logger.NewNope()
	}
	goose.SetBaseFS(fsys)
	goose.SetLogger(&gooseLoggerAdapter{log})
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// goose returns the error as well; never exit from here.
	g.log.Error(fmt.Sprintf(format, args...))
}
