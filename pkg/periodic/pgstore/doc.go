// Package pgstore persists periodic task definitions and their run history
// in PostgreSQL.
//
// The schema ships as embedded goose migrations:
//
//	if err := db.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, "beat_schema_migrations", log); err != nil {
//		return err
//	}
//
//	store, err := pgstore.New(pool, pgstore.WithQueryTimeout(5*time.Second))
//
// Name uniqueness and schedule mutual exclusion are enforced twice: by
// periodic.Definition.Validate before every write, and by UNIQUE and CHECK
// constraints in the table. Constraint violations are reported as
// periodic.ErrDuplicateName and periodic.ErrScheduleConflict.
package pgstore
