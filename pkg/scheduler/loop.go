package scheduler

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/beat/pkg/logger"
	"github.com/dmitrymomot/beat/pkg/periodic"
)

// DefaultLoopInterval is how often the dispatch loop wakes up.
const DefaultLoopInterval = time.Second

// Dispatch is one fire of a schedule entry handed to the task queue.
type Dispatch struct {
	ScheduledAt time.Time
	// ExpiresAt is zero when the entry has no expiration window.
	ExpiresAt time.Time
	Kwargs    map[string]string
	Name      string
	Task      string
	Args      []string
}

// EnqueueFunc hands a due fire to the task queue.
type EnqueueFunc func(ctx context.Context, d Dispatch) error

// Recorder persists dispatch history.
type Recorder interface {
	RecordRun(ctx context.Context, run periodic.Run) error
}

// Locker guards dispatch so that only one beat instance fires entries.
// Acquire is called on every loop iteration and must also renew a lock
// the caller already holds.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Loop drives a Source on a fixed cadence and enqueues due entries.
//
// Next-fire times are tracked per entry name and survive refreshes as long
// as the entry's schedule is unchanged. Fires that are later than the
// entry's expiration window are dropped instead of enqueued, and missed
// fires are never replayed.
type Loop struct {
	src      Source
	enqueue  EnqueueFunc
	recorder Recorder
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
	state    map[string]*fireState
	interval time.Duration
	leader   bool
}

type fireState struct {
	next time.Time
	spec string
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithInterval sets how often the loop wakes up. Defaults to one second.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLoopLogger sets the loop logger. Defaults to a no-op logger.
func WithLoopLogger(log *slog.Logger) LoopOption {
	return func(l *Loop) {
		if log != nil {
			l.logger = log
		}
	}
}

// WithRecorder records every enqueued, expired and failed fire.
func WithRecorder(r Recorder) LoopOption {
	return func(l *Loop) {
		l.recorder = r
	}
}

// WithLocker restricts dispatch to the instance holding the lock.
func WithLocker(lk Locker) LoopOption {
	return func(l *Loop) {
		l.locker = lk
	}
}

// WithLoopClock overrides the time source.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLoop creates a dispatch loop over src.
func NewLoop(src Source, enqueue EnqueueFunc, opts ...LoopOption) (*Loop, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if enqueue == nil {
		return nil, ErrEnqueueRequired
	}

	l := &Loop{
		src:      src,
		enqueue:  enqueue,
		logger:   logger.NewNope(),
		now:      time.Now,
		state:    make(map[string]*fireState),
		interval: DefaultLoopInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run blocks until ctx is cancelled, stepping once immediately and then on
// every interval. It always returns nil; failures are logged.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.InfoContext(ctx, "dispatch loop started", slog.Duration("interval", l.interval))

	for {
		l.step(ctx)

		select {
		case <-ctx.Done():
			l.release()
			l.logger.Info("dispatch loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// step runs one iteration: tick the source, then fire what is due.
func (l *Loop) step(ctx context.Context) {
	l.src.Tick(ctx)
	entries := l.src.Entries()

	for name := range l.state {
		if _, ok := entries[name]; !ok {
			delete(l.state, name)
		}
	}

	if !l.holdsLock(ctx) {
		clear(l.state)
		return
	}

	now := l.now()
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		e := entries[name]

		st, ok := l.state[name]
		if !ok || st.spec != e.Spec {
			l.state[name] = &fireState{spec: e.Spec, next: e.Schedule.Next(now)}
			continue
		}
		if st.next.IsZero() || now.Before(st.next) {
			continue
		}

		due := st.next
		st.next = e.Schedule.Next(due)
		if !st.next.After(now) {
			st.next = e.Schedule.Next(now)
		}
		l.fire(ctx, e, due, now)
	}
}

func (l *Loop) fire(ctx context.Context, e *Entry, due, now time.Time) {
	ctx = logger.WithDefinition(ctx, e.Name)

	if e.Expires > 0 && now.Sub(due) > e.Expires {
		l.logger.WarnContext(ctx, "dropping expired periodic fire",
			slog.Time("scheduled_at", due),
			slog.Duration("late", now.Sub(due)),
			slog.Duration("expires", e.Expires),
		)
		l.record(ctx, periodic.Run{TaskName: e.Name, ScheduledAt: due, EnqueuedAt: now, Status: periodic.RunExpired})
		return
	}

	d := Dispatch{
		Name:        e.Name,
		Task:        e.Task,
		Args:        e.Args,
		Kwargs:      e.Kwargs,
		ScheduledAt: due,
	}
	if e.Expires > 0 {
		d.ExpiresAt = due.Add(e.Expires)
	}

	if err := l.enqueue(ctx, d); err != nil {
		l.logger.ErrorContext(ctx, "failed to enqueue periodic task",
			slog.String("task", e.Task),
			slog.Any("error", err),
		)
		l.record(ctx, periodic.Run{TaskName: e.Name, ScheduledAt: due, EnqueuedAt: now, Status: periodic.RunFailed, Error: err.Error()})
		return
	}

	l.logger.InfoContext(ctx, "periodic task dispatched",
		slog.String("task", e.Task),
		slog.Time("scheduled_at", due),
	)
	l.record(ctx, periodic.Run{TaskName: e.Name, ScheduledAt: due, EnqueuedAt: now, Status: periodic.RunEnqueued})
}

func (l *Loop) record(ctx context.Context, run periodic.Run) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.RecordRun(ctx, run); err != nil {
		l.logger.WarnContext(ctx, "failed to record periodic run",
			slog.String("status", run.Status),
			slog.Any("error", err),
		)
	}
}

func (l *Loop) holdsLock(ctx context.Context) bool {
	if l.locker == nil {
		return true
	}

	ok, err := l.locker.Acquire(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "beat lock check failed, skipping dispatch", slog.Any("error", err))
		ok = false
	}

	switch {
	case ok && !l.leader:
		l.logger.InfoContext(ctx, "acquired beat lock, dispatching")
	case !ok && l.leader:
		l.logger.WarnContext(ctx, "lost beat lock, standing by")
	}
	l.leader = ok
	return ok
}

func (l *Loop) release() {
	if l.locker == nil || !l.leader {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.locker.Release(ctx); err != nil {
		l.logger.Warn("failed to release beat lock", slog.Any("error", err))
	}
	l.leader = false
}
