package job

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sync"
)

// taskExecutor is the type-erased form of a registered handler.
type taskExecutor interface {
	Execute(ctx context.Context, call Call) error
}

// HandlerFunc handles one execution of a periodic task.
type HandlerFunc func(ctx context.Context, call Call) error

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, call Call) error {
	return f(ctx, call)
}

// taskRegistry stores task executors by task name.
type taskRegistry struct {
	executors map[string]taskExecutor
	mu        sync.RWMutex
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{
		executors: make(map[string]taskExecutor),
	}
}

func (r *taskRegistry) register(name string, executor taskExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = executor
}

func (r *taskRegistry) get(name string) (taskExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[name]
	return executor, ok
}

// names returns registered task names in sorted order.
func (r *taskRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.executors))
}

// taskWrapper decodes keyword arguments into P and calls the typed handler.
type taskWrapper[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}] struct {
	task T
}

// Execute round-trips kwargs through JSON so P can declare them as
// tagged string fields.
func (w *taskWrapper[P, T]) Execute(ctx context.Context, call Call) error {
	var payload P
	if len(call.Kwargs) > 0 {
		raw, err := json.Marshal(call.Kwargs)
		if err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return w.task.Handle(ctx, payload)
}

func newTaskWrapper[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) *taskWrapper[P, T] {
	return &taskWrapper[P, T]{task: task}
}
