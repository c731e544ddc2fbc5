package redis

import "errors"

// Connection errors.
var (
	ErrEmptyConnectionURL = errors.New("redis: REDIS_URL is not set")
	ErrFailedToParseURL   = errors.New("redis: failed to parse connection URL")
	ErrConnectionFailed   = errors.New("redis: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")
)

// Lock errors.
var (
	ErrClientRequired  = errors.New("redis: client is required")
	ErrLockKeyRequired = errors.New("redis: lock key is required")
)
