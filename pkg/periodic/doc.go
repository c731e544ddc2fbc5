// Package periodic defines periodic-task definitions and the store
// contracts used to read and write them.
//
// A [Definition] names one recurring job: the task reference to dispatch,
// either a fixed interval in seconds or a five-field [Crontab], and
// JSON-encoded positional and keyword arguments. The scheduler reads
// definitions through the narrow [Reader] interface; management tooling
// uses the full [Store].
//
// # Schedules
//
// Interval and crontab are mutually exclusive. Use the setters to switch
// between them so the other kind is always cleared:
//
//	def.SetInterval(30)                                     // every 30 seconds
//	def.SetCrontab(periodic.Crontab{Minute: "0", Hour: "8"}) // daily at 08:00
//
// Unset crontab fields match any value.
//
// # Arguments
//
// Arguments are stored as UTF-8 JSON text. Positional arguments are a JSON
// array of strings, keyword arguments a JSON object of strings:
//
//	_ = def.SetArgs([]string{"report", "daily"})
//	_ = def.SetKwargs(map[string]string{"format": "csv"})
//
// # Validation
//
// [Definition.Validate] is enforced by every Store on write. Readers are
// lenient: a stored row that violates the rules is returned as is and the
// scheduler decides how to treat it.
//
// # Implementations
//
//   - [MemoryStore] keeps everything in memory
//   - [github.com/dmitrymomot/beat/pkg/periodic/pgstore] persists to PostgreSQL
package periodic
