package job

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the job health check fails.
var ErrHealthcheckFailed = errors.New("job: healthcheck failed")

var (
	errManagerNil        = errors.New("manager is nil")
	errManagerNotStarted = errors.New("manager not started")
	errEnqueuerNil       = errors.New("enqueuer is nil")
)

// Healthcheck verifies that the manager is started and its pool reachable.
// Compatible with health.CheckFunc.
func Healthcheck(m *Manager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m == nil {
			return errors.Join(ErrHealthcheckFailed, errManagerNil)
		}

		m.mu.Lock()
		started := m.started
		m.mu.Unlock()

		if !started {
			return errors.Join(ErrHealthcheckFailed, errManagerNotStarted)
		}
		return ping(ctx, m.Enqueuer)
	}
}

// EnqueuerHealthcheck verifies that the enqueuer's pool is reachable.
func EnqueuerHealthcheck(e *Enqueuer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if e == nil {
			return errors.Join(ErrHealthcheckFailed, errEnqueuerNil)
		}
		return ping(ctx, e)
	}
}

func ping(ctx context.Context, e *Enqueuer) error {
	// River shares the pool, so a ping covers its tables' reachability.
	if err := e.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
