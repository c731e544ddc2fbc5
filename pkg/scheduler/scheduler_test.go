package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beat/pkg/periodic"
)

// fakeReader serves a fixed list of definitions and counts queries.
type fakeReader struct {
	mu    sync.Mutex
	defs  []periodic.Definition
	err   error
	calls int
}

func (f *fakeReader) ListEnabled(context.Context) ([]periodic.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]periodic.Definition, 0, len(f.defs))
	for _, d := range f.defs {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeReader) set(defs []periodic.Definition, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defs = defs
	f.err = err
}

func (f *fakeReader) queries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errDown = errors.New("connection refused")

func intervalDef(name string, seconds int64) periodic.Definition {
	return periodic.Definition{Name: name, Task: "tasks." + name, Interval: seconds, Enabled: true}
}

func crontabDef(name string, c periodic.Crontab) periodic.Definition {
	return periodic.Definition{Name: name, Task: "tasks." + name, Crontab: c, Enabled: true}
}

func TestScheduler_IntervalEntry(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{defs: []periodic.Definition{intervalDef("cleanup", 30)}}
	s := New(reader)
	s.Initialize(context.Background())

	entries := s.Entries()
	require.Len(t, entries, 1)

	e := entries["cleanup"]
	require.NotNil(t, e)
	assert.Equal(t, "tasks.cleanup", e.Task)
	assert.Equal(t, "every 30s", e.Spec)
	assert.Equal(t, DefaultExpires, e.Expires)

	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(30*time.Second), e.Schedule.Next(at))
}

func TestScheduler_WildcardCrontab(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{defs: []periodic.Definition{
		crontabDef("hourly", periodic.Crontab{Minute: "0"}),
	}}
	s := New(reader)
	s.Initialize(context.Background())

	e := s.Entries()["hourly"]
	require.NotNil(t, e)
	assert.Equal(t, "0 * * * *", e.Spec)

	at := time.Date(2026, 3, 14, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC), e.Schedule.Next(at))
}

func TestScheduler_CrontabFields(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{defs: []periodic.Definition{
		crontabDef("report", periodic.Crontab{Minute: "0", Hour: "8"}),
	}}
	s := New(reader)
	s.Initialize(context.Background())

	e := s.Entries()["report"]
	require.NotNil(t, e)

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), e.Schedule.Next(at))
}

func TestScheduler_CrontabDaysMustBothMatch(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{defs: []periodic.Definition{
		crontabDef("first-monday", periodic.Crontab{Minute: "0", Hour: "9", DayOfMonth: "1", DayOfWeek: "mon"}),
		crontabDef("never", periodic.Crontab{Minute: "0", Hour: "0", DayOfMonth: "30", MonthOfYear: "2"}),
	}}
	s := New(reader)
	s.Initialize(context.Background())

	e := s.Entries()["first-monday"]
	require.NotNil(t, e)

	next := e.Schedule.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), next)

	next = e.Schedule.Next(next)
	assert.Equal(t, time.Date(2027, 2, 1, 9, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Monday, next.Weekday())

	never := s.Entries()["never"]
	require.NotNil(t, never)
	assert.True(t, never.Schedule.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).IsZero())
}

func TestScheduler_IntervalWinsOnConflict(t *testing.T) {
	t.Parallel()

	def := intervalDef("both", 10)
	def.Crontab = periodic.Crontab{Minute: "5"}

	s := New(&fakeReader{defs: []periodic.Definition{def}})
	s.Initialize(context.Background())

	e := s.Entries()["both"]
	require.NotNil(t, e)
	assert.Equal(t, "every 10s", e.Spec)
}

func TestScheduler_SkipsMalformedDefinitions(t *testing.T) {
	t.Parallel()

	badCron := crontabDef("bad-cron", periodic.Crontab{Minute: "61"})
	badArgs := intervalDef("bad-args", 10)
	badArgs.Args = "[1,"
	badKwargs := intervalDef("bad-kwargs", 10)
	badKwargs.Kwargs = `["not","an","object"]`
	hugeInterval := intervalDef("huge-interval", 10_000_000_000)

	reader := &fakeReader{defs: []periodic.Definition{
		intervalDef("good", 10),
		badCron,
		badArgs,
		badKwargs,
		hugeInterval,
	}}
	s := New(reader)

	require.NoError(t, s.Refresh(context.Background()))

	entries := s.Entries()
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, "good")
}

func TestScheduler_DecodesArguments(t *testing.T) {
	t.Parallel()

	def := intervalDef("send", 60)
	def.Args = `["a","b"]`
	def.Kwargs = `{"to":"ops"}`

	s := New(&fakeReader{defs: []periodic.Definition{def}})
	s.Initialize(context.Background())

	e := s.Entries()["send"]
	require.NotNil(t, e)
	assert.Equal(t, []string{"a", "b"}, e.Args)
	assert.Equal(t, map[string]string{"to": "ops"}, e.Kwargs)
}

func TestScheduler_DisabledDefinitionRemoved(t *testing.T) {
	t.Parallel()

	a := intervalDef("a", 30)
	b := crontabDef("b", periodic.Crontab{Minute: "0", Hour: "8"})
	reader := &fakeReader{defs: []periodic.Definition{a, b}}

	s := New(reader)
	s.Initialize(context.Background())
	require.Len(t, s.Entries(), 2)

	a.Enabled = false
	reader.set([]periodic.Definition{a, b}, nil)
	require.NoError(t, s.Refresh(context.Background()))

	entries := s.Entries()
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, "b")
	assert.NotContains(t, entries, "a")
}

func TestScheduler_FailedRefreshKeepsSchedule(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{defs: []periodic.Definition{intervalDef("a", 30), intervalDef("b", 60)}}
	s := New(reader)
	s.Initialize(context.Background())

	before := s.Entries()
	lastRefresh := s.LastRefresh()

	reader.set(nil, errDown)
	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errDown)

	after := s.Entries()
	require.Len(t, after, len(before))
	for name, e := range before {
		assert.Same(t, e, after[name])
	}
	assert.Equal(t, lastRefresh, s.LastRefresh())
}

func TestScheduler_InitializeFailureStartsEmpty(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{err: errDown}
	s := New(reader)

	assert.NotPanics(t, func() { s.Initialize(context.Background()) })
	assert.True(t, s.Initialized())
	assert.Empty(t, s.Entries())
	assert.Zero(t, s.Len())
	assert.True(t, s.LastRefresh().IsZero())
}

func TestScheduler_TickHonoursStaleness(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reader := &fakeReader{defs: []periodic.Definition{intervalDef("a", 30)}}
	s := New(reader, WithClock(clock.Now))

	s.Initialize(context.Background())
	require.Equal(t, 1, reader.queries())

	for range 59 {
		clock.Advance(time.Second)
		s.Tick(context.Background())
	}
	assert.Equal(t, 1, reader.queries(), "no query inside the staleness window")

	clock.Advance(2 * time.Second)
	s.Tick(context.Background())
	assert.Equal(t, 2, reader.queries(), "exactly one query once stale")

	s.Tick(context.Background())
	assert.Equal(t, 2, reader.queries())
}

func TestScheduler_TickPicksUpChanges(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reader := &fakeReader{defs: []periodic.Definition{intervalDef("a", 30)}}
	s := New(reader, WithClock(clock.Now))
	s.Initialize(context.Background())

	reader.set([]periodic.Definition{intervalDef("a", 30), intervalDef("b", 45)}, nil)

	s.Tick(context.Background())
	assert.Len(t, s.Entries(), 1)

	clock.Advance(DefaultStaleness + time.Second)
	s.Tick(context.Background())
	assert.Len(t, s.Entries(), 2)
}

func TestScheduler_TickThrottlesRetries(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reader := &fakeReader{err: errDown}
	s := New(reader, WithClock(clock.Now), WithRetryInterval(5*time.Second))
	s.Initialize(context.Background())
	require.Equal(t, 1, reader.queries())

	clock.Advance(time.Second)
	s.Tick(context.Background())
	assert.Equal(t, 1, reader.queries())

	clock.Advance(4 * time.Second)
	s.Tick(context.Background())
	assert.Equal(t, 2, reader.queries())

	reader.set([]periodic.Definition{intervalDef("a", 30)}, nil)
	clock.Advance(5 * time.Second)
	s.Tick(context.Background())
	assert.Equal(t, 3, reader.queries())
	assert.Len(t, s.Entries(), 1)
}

func TestScheduler_EntriesSnapshot(t *testing.T) {
	t.Parallel()

	s := New(&fakeReader{defs: []periodic.Definition{intervalDef("a", 30)}})
	s.Initialize(context.Background())

	snap := s.Entries()
	delete(snap, "a")

	assert.Len(t, s.Entries(), 1)
}

func TestScheduler_Options(t *testing.T) {
	t.Parallel()

	s := New(&fakeReader{},
		WithLogger(nil),
		WithStaleness(0),
		WithExpires(-time.Second),
		WithClock(nil),
	)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.now)
	assert.Equal(t, DefaultStaleness, s.staleness)
	assert.Equal(t, DefaultExpires, s.expires)

	s = New(&fakeReader{}, WithStaleness(time.Hour), WithExpires(10*time.Second))
	assert.Equal(t, time.Hour, s.staleness)
	assert.Equal(t, 10*time.Second, s.expires)
}

func TestScheduler_Healthcheck(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reader := &fakeReader{err: errDown}
	s := New(reader, WithClock(clock.Now))
	check := s.Healthcheck(2 * time.Minute)

	s.Initialize(context.Background())
	assert.ErrorIs(t, check(context.Background()), ErrNeverRefreshed)

	reader.set(nil, nil)
	require.NoError(t, s.Refresh(context.Background()))
	assert.NoError(t, check(context.Background()))

	clock.Advance(3 * time.Minute)
	err := check(context.Background())
	assert.ErrorIs(t, err, ErrScheduleStale)
	assert.Contains(t, err.Error(), "last refresh 3m0s ago")
}

func TestScheduler_WithMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := periodic.NewMemoryStore()

	a, err := store.Create(ctx, intervalDef("a", 30))
	require.NoError(t, err)
	_, err = store.Create(ctx, crontabDef("b", periodic.Crontab{Minute: "0", Hour: "8"}))
	require.NoError(t, err)

	s := New(store)
	s.Initialize(ctx)
	require.Len(t, s.Entries(), 2)

	disabled := false
	_, err = store.Update(ctx, a.ID, periodic.Patch{Enabled: &disabled})
	require.NoError(t, err)
	require.NoError(t, s.Refresh(ctx))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "0 8 * * *", entries["b"].Spec)
}
