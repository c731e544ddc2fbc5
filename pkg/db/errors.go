package db

import "errors"

// Connection errors.
var (
	ErrConnectionStringRequired = errors.New("db: DATABASE_CONN_URL is not set")
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
)

// Migration errors.
var (
	ErrSetDialect       = errors.New("db: migrations: failed to set dialect")
	ErrApplyMigrations  = errors.New("db: migrations: failed to apply")
	ErrMigrationsStatus = errors.New("db: migrations: failed to read version")
)
