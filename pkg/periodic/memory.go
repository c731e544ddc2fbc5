package periodic

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store and RunRecorder.
// Suitable for tests and single-process setups without a database.
type MemoryStore struct {
	defs   map[int64]Definition
	runs   []Run
	now    func() time.Time
	nextID int64
	runID  int64
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defs: make(map[int64]Definition),
		now:  time.Now,
	}
}

// ListEnabled returns enabled definitions ordered by ID.
func (s *MemoryStore) ListEnabled(ctx context.Context) ([]Definition, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(d Definition) bool { return !d.Enabled }), nil
}

// List returns all definitions ordered by ID.
func (s *MemoryStore) List(ctx context.Context) ([]Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Values(s.defs))
	slices.SortFunc(out, func(a, b Definition) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Get returns the definition with the given ID.
func (s *MemoryStore) Get(_ context.Context, id int64) (Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.defs[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	return d, nil
}

// GetByName returns the definition with the given name.
func (s *MemoryStore) GetByName(_ context.Context, name string) (Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.defs {
		if d.Name == name {
			return d, nil
		}
	}
	return Definition{}, ErrNotFound
}

// Create validates and stores a new definition.
func (s *MemoryStore) Create(_ context.Context, def Definition) (Definition, error) {
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(def.Name, 0) {
		return Definition{}, ErrDuplicateName
	}

	s.nextID++
	now := s.now()
	def.ID = s.nextID
	def.CreatedAt = now
	def.UpdatedAt = now
	s.defs[def.ID] = def
	return def, nil
}

// Update applies a patch to an existing definition.
func (s *MemoryStore) Update(_ context.Context, id int64, patch Patch) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.defs[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	if err := patch.Apply(&d); err != nil {
		return Definition{}, err
	}
	if err := d.Validate(); err != nil {
		return Definition{}, err
	}
	if s.nameTaken(d.Name, id) {
		return Definition{}, ErrDuplicateName
	}

	d.UpdatedAt = s.now()
	s.defs[id] = d
	return d, nil
}

// Delete removes a definition.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.defs[id]; !ok {
		return ErrNotFound
	}
	delete(s.defs, id)
	return nil
}

// RecordRun appends a run and updates the definition bookkeeping for
// enqueued runs.
func (s *MemoryStore) RecordRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runID++
	run.ID = s.runID
	s.runs = append(s.runs, run)

	if run.Status != RunEnqueued {
		return nil
	}
	for id, d := range s.defs {
		if d.Name == run.TaskName {
			at := run.EnqueuedAt
			d.LastRunAt = &at
			d.TotalRunCount++
			s.defs[id] = d
			break
		}
	}
	return nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *MemoryStore) ListRuns(_ context.Context, filter RunFilter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Run, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		r := s.runs[i]
		if filter.TaskName != "" && !strings.Contains(r.TaskName, filter.TaskName) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && r.EnqueuedAt.Before(filter.Since) {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) nameTaken(name string, exceptID int64) bool {
	for id, d := range s.defs {
		if id != exceptID && d.Name == name {
			return true
		}
	}
	return false
}
