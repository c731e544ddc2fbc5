package beat

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/beat/pkg/scheduler"
)

// scheduleView is the JSON form of the materialized schedule.
type scheduleView struct {
	LastRefresh *time.Time  `json:"last_refresh,omitempty"`
	Entries     []entryView `json:"entries"`
}

type entryView struct {
	Kwargs   map[string]string `json:"kwargs"`
	Name     string            `json:"name"`
	Task     string            `json:"task"`
	Schedule string            `json:"schedule"`
	Expires  string            `json:"expires,omitempty"`
	Args     []string          `json:"args"`
}

func newScheduleView(s *scheduler.Scheduler) scheduleView {
	entries := s.Entries()

	view := scheduleView{Entries: make([]entryView, 0, len(entries))}
	if last := s.LastRefresh(); !last.IsZero() {
		last = last.UTC()
		view.LastRefresh = &last
	}

	for _, name := range slices.Sorted(maps.Keys(entries)) {
		e := entries[name]
		ev := entryView{
			Name:     e.Name,
			Task:     e.Task,
			Schedule: e.Spec,
			Args:     e.Args,
			Kwargs:   e.Kwargs,
		}
		if e.Expires > 0 {
			ev.Expires = e.Expires.String()
		}
		view.Entries = append(view.Entries, ev)
	}
	return view
}

// scheduleHandler serves the current schedule sorted by entry name.
func scheduleHandler(s *scheduler.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(newScheduleView(s))
	}
}
