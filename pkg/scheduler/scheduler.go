package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/beat/pkg/logger"
	"github.com/dmitrymomot/beat/pkg/periodic"
)

const (
	// DefaultStaleness is the maximum age of the schedule before Tick
	// reloads it from the store.
	DefaultStaleness = time.Minute

	// DefaultExpires is how late a fire may be dispatched before it is
	// dropped.
	DefaultExpires = 60 * time.Second

	// DefaultRetryInterval throttles reload attempts while the store
	// keeps failing.
	DefaultRetryInterval = 5 * time.Second
)

// Source is what a dispatch loop needs from a scheduler: a tick hook and
// the current materialized schedule keyed by definition name.
type Source interface {
	Tick(ctx context.Context)
	Entries() map[string]*Entry
}

// Scheduler materializes enabled periodic definitions into an in-memory
// schedule and keeps it fresh.
//
// Refresh is serialized internally. The schedule map is published
// atomically, so Entries never observes a partially rebuilt schedule.
type Scheduler struct {
	store  periodic.Reader
	logger *slog.Logger
	now    func() time.Time

	schedule    atomic.Pointer[map[string]*Entry]
	lastRefresh atomic.Int64
	initialized atomic.Bool

	staleness     time.Duration
	expires       time.Duration
	retryInterval time.Duration

	mu          sync.Mutex
	lastAttempt time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStaleness sets the maximum schedule age before Tick reloads it.
// Defaults to one minute.
func WithStaleness(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.staleness = d
		}
	}
}

// WithExpires sets the per-entry expiration window. Defaults to 60s.
func WithExpires(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.expires = d
		}
	}
}

// WithRetryInterval sets the minimum delay between reload attempts
// after a failed refresh. Defaults to 5s.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.retryInterval = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scheduler reading definitions from store.
// The schedule is empty until Initialize or Refresh succeeds.
func New(store periodic.Reader, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:         store,
		logger:        logger.NewNope(),
		now:           time.Now,
		staleness:     DefaultStaleness,
		expires:       DefaultExpires,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	empty := make(map[string]*Entry)
	s.schedule.Store(&empty)
	return s
}

// Initialize performs the first load. A store failure leaves the schedule
// empty and is logged; it never fails the caller.
func (s *Scheduler) Initialize(ctx context.Context) {
	defer s.initialized.Store(true)

	if err := s.Refresh(ctx); err != nil {
		s.logger.ErrorContext(ctx, "periodic schedule unavailable at startup, starting empty",
			slog.Any("error", err),
		)
	}
}

// Initialized reports whether Initialize has run.
func (s *Scheduler) Initialized() bool {
	return s.initialized.Load()
}

// Refresh reloads all enabled definitions and swaps in the new schedule.
//
// Malformed definitions are skipped and logged. If the store cannot be
// queried the previous schedule is kept and an error wrapping
// ErrStoreUnavailable is returned.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAttempt = s.now()

	defs, err := s.store.ListEnabled(ctx)
	if err != nil {
		err = errors.Join(ErrStoreUnavailable, err)
		s.logger.ErrorContext(ctx, "periodic schedule refresh failed, keeping previous schedule",
			slog.Int("entries", len(*s.schedule.Load())),
			slog.Any("error", err),
		)
		return err
	}

	next := make(map[string]*Entry, len(defs))
	skipped := 0
	for _, def := range defs {
		ctx := logger.WithDefinition(ctx, def.Name)

		if def.HasConflict() {
			s.logger.WarnContext(ctx, "periodic task has both interval and crontab set, using interval",
				slog.Int64("interval", def.Interval),
				slog.String("crontab", def.Crontab.Expression()),
			)
		}

		entry, err := newEntry(def, s.expires)
		if err != nil {
			skipped++
			s.logger.WarnContext(ctx, "skipping malformed periodic task",
				slog.String("task", def.Task),
				slog.Any("error", err),
			)
			continue
		}
		next[def.Name] = entry
	}

	s.schedule.Store(&next)
	s.lastRefresh.Store(s.now().UnixNano())

	s.logger.DebugContext(ctx, "periodic schedule refreshed",
		slog.Int("entries", len(next)),
		slog.Int("skipped", skipped),
	)
	return nil
}

// Tick reloads the schedule when it is older than the staleness window.
// Errors are logged by Refresh and never returned.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.stale() {
		return
	}
	_ = s.Refresh(ctx)
}

func (s *Scheduler) stale() bool {
	now := s.now()
	if last := s.LastRefresh(); !last.IsZero() && now.Sub(last) <= s.staleness {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAttempt.IsZero() || now.Sub(s.lastAttempt) >= s.retryInterval
}

// Entries returns a snapshot of the schedule keyed by definition name.
// The map is owned by the caller; the entries must not be modified.
func (s *Scheduler) Entries() map[string]*Entry {
	return maps.Clone(*s.schedule.Load())
}

// Len returns the number of entries in the schedule.
func (s *Scheduler) Len() int {
	return len(*s.schedule.Load())
}

// LastRefresh returns the time of the last successful refresh, or the
// zero time if none succeeded yet.
func (s *Scheduler) LastRefresh() time.Time {
	ns := s.lastRefresh.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Healthcheck fails when the schedule has not been refreshed within
// maxAge. Compatible with health.CheckFunc.
func (s *Scheduler) Healthcheck(maxAge time.Duration) func(context.Context) error {
	return func(context.Context) error {
		last := s.LastRefresh()
		if last.IsZero() {
			return ErrNeverRefreshed
		}
		if age := s.now().Sub(last); age > maxAge {
			return fmt.Errorf("%w: last refresh %s ago", ErrScheduleStale, age.Round(time.Second))
		}
		return nil
	}
}
