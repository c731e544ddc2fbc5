package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/beat/pkg/db"
	"github.com/dmitrymomot/beat/pkg/periodic"
)

// Migrations holds the schema for periodic_tasks and periodic_task_runs.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the SQL files.
const MigrationsDir = "migrations"

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	constraintIntervalPositive = "periodic_tasks_interval_positive"
	constraintIntervalBounded  = "periodic_tasks_interval_bounded"

	definitionColumns = `id, name, task, interval_seconds,
		crontab_minute, crontab_hour, crontab_day_of_week, crontab_day_of_month, crontab_month_of_year,
		args, kwargs, enabled, last_run_at, total_run_count, description, created_at, updated_at`

	runColumns = `id, task_name, scheduled_at, enqueued_at, status, error`
)

// Store is a PostgreSQL implementation of periodic.Store and
// periodic.RunRecorder.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithQueryTimeout bounds each store operation. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.queryTimeout = d
		}
	}
}

// New creates a store backed by the given pool.
func New(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	s := &Store{pool: pool, queryTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListEnabled returns all enabled definitions ordered by ID.
func (s *Store) ListEnabled(ctx context.Context) ([]periodic.Definition, error) {
	return s.queryDefinitions(ctx, `SELECT `+definitionColumns+` FROM periodic_tasks WHERE enabled ORDER BY id`)
}

// List returns all definitions ordered by ID.
func (s *Store) List(ctx context.Context) ([]periodic.Definition, error) {
	return s.queryDefinitions(ctx, `SELECT `+definitionColumns+` FROM periodic_tasks ORDER BY id`)
}

// Get returns the definition with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (periodic.Definition, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return getDefinition(ctx, s.pool, `SELECT `+definitionColumns+` FROM periodic_tasks WHERE id = $1`, id)
}

// GetByName returns the definition with the given name.
func (s *Store) GetByName(ctx context.Context, name string) (periodic.Definition, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return getDefinition(ctx, s.pool, `SELECT `+definitionColumns+` FROM periodic_tasks WHERE name = $1`, name)
}

// Create validates and inserts a definition.
func (s *Store) Create(ctx context.Context, def periodic.Definition) (periodic.Definition, error) {
	if err := def.Validate(); err != nil {
		return periodic.Definition{}, err
	}
	def = normalize(def)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	r := toRow(def)
	rows, err := s.pool.Query(ctx, `
		INSERT INTO periodic_tasks (name, task, interval_seconds,
			crontab_minute, crontab_hour, crontab_day_of_week, crontab_day_of_month, crontab_month_of_year,
			args, kwargs, enabled, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+definitionColumns,
		r.Name, r.Task, r.IntervalSeconds,
		r.CrontabMinute, r.CrontabHour, r.CrontabDayOfWeek, r.CrontabDayOfMonth, r.CrontabMonthOfYear,
		r.Args, r.Kwargs, r.Enabled, r.Description,
	)
	if err != nil {
		return periodic.Definition{}, mapError(err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[definitionRow])
	if err != nil {
		return periodic.Definition{}, mapError(err)
	}
	return out.toDefinition(), nil
}

// Update applies a patch inside a transaction, re-validating the result.
func (s *Store) Update(ctx context.Context, id int64, patch periodic.Patch) (periodic.Definition, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out periodic.Definition
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		def, err := getDefinition(ctx, tx, `SELECT `+definitionColumns+` FROM periodic_tasks WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(&def); err != nil {
			return err
		}
		if err := def.Validate(); err != nil {
			return err
		}
		def = normalize(def)

		r := toRow(def)
		rows, err := tx.Query(ctx, `
			UPDATE periodic_tasks SET
				name = $2, task = $3, interval_seconds = $4,
				crontab_minute = $5, crontab_hour = $6, crontab_day_of_week = $7,
				crontab_day_of_month = $8, crontab_month_of_year = $9,
				args = $10, kwargs = $11, enabled = $12, description = $13,
				updated_at = now()
			WHERE id = $1
			RETURNING `+definitionColumns,
			id, r.Name, r.Task, r.IntervalSeconds,
			r.CrontabMinute, r.CrontabHour, r.CrontabDayOfWeek, r.CrontabDayOfMonth, r.CrontabMonthOfYear,
			r.Args, r.Kwargs, r.Enabled, r.Description,
		)
		if err != nil {
			return err
		}
		updated, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[definitionRow])
		if err != nil {
			return err
		}
		out = updated.toDefinition()
		return nil
	})
	if err != nil {
		return periodic.Definition{}, mapError(err)
	}
	return out, nil
}

// Delete removes the definition with the given ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM periodic_tasks WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return periodic.ErrNotFound
	}
	return nil
}

// RecordRun stores a run. Enqueued runs also bump last_run_at and
// total_run_count of the matching definition in the same transaction.
func (s *Store) RecordRun(ctx context.Context, run periodic.Run) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if run.Status == "" {
		run.Status = periodic.RunEnqueued
	}
	if run.EnqueuedAt.IsZero() {
		run.EnqueuedAt = time.Now()
	}

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO periodic_task_runs (task_name, scheduled_at, enqueued_at, status, error)
			VALUES ($1, $2, $3, $4, $5)`,
			run.TaskName, run.ScheduledAt, run.EnqueuedAt, run.Status, run.Error,
		); err != nil {
			return fmt.Errorf("pgstore: insert run: %w", err)
		}
		if run.Status != periodic.RunEnqueued {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			UPDATE periodic_tasks
			SET last_run_at = $2, total_run_count = total_run_count + 1
			WHERE name = $1`,
			run.TaskName, run.EnqueuedAt,
		); err != nil {
			return fmt.Errorf("pgstore: update run bookkeeping: %w", err)
		}
		return nil
	})
}

// ListRuns returns runs matching the filter, newest first.
func (s *Store) ListRuns(ctx context.Context, filter periodic.RunFilter) ([]periodic.Run, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.TaskName != "" {
		args = append(args, "%"+filter.TaskName+"%")
		where = append(where, fmt.Sprintf("task_name LIKE $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where = append(where, fmt.Sprintf("enqueued_at >= $%d", len(args)))
	}

	query := `SELECT ` + runColumns + ` FROM periodic_task_runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY enqueued_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[runRow])
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]periodic.Run, len(runs))
	for i, r := range runs {
		out[i] = r.toRun()
	}
	return out, nil
}

func (s *Store) queryDefinitions(ctx context.Context, query string, args ...any) ([]periodic.Definition, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defs, err := pgx.CollectRows(rows, pgx.RowToStructByName[definitionRow])
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]periodic.Definition, len(defs))
	for i, r := range defs {
		out[i] = r.toDefinition()
	}
	return out, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getDefinition(ctx context.Context, q querier, query string, arg any) (periodic.Definition, error) {
	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return periodic.Definition{}, mapError(err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[definitionRow])
	if err != nil {
		return periodic.Definition{}, mapError(err)
	}
	return r.toDefinition(), nil
}

// normalize stores empty argument fields as canonical JSON.
func normalize(def periodic.Definition) periodic.Definition {
	if strings.TrimSpace(def.Args) == "" {
		def.Args = "[]"
	}
	if strings.TrimSpace(def.Kwargs) == "" {
		def.Kwargs = "{}"
	}
	return def
}

// mapError converts driver errors into periodic sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return periodic.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(periodic.ErrDuplicateName, err)
		case pgCheckViolation:
			switch pgErr.ConstraintName {
			case constraintIntervalPositive, constraintIntervalBounded:
				return errors.Join(periodic.ErrInvalidInterval, err)
			default:
				return errors.Join(periodic.ErrScheduleConflict, err)
			}
		}
	}
	return err
}
