package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// RunLogEntry is one accumulated log line for the current run.
type RunLogEntry struct {
	At      time.Time
	Message string
	IsError bool
}

// RunLog accumulates every log line of one pipeline run in memory so the
// whole run can be flushed to the backup store as a single artifact at the
// end, whatever happened in between. It echoes each line to the console
// Logger as it is appended.
//
// Safe for concurrent use; sources may log from parallel goroutines.
type RunLog struct {
	logger *Logger

	mu      sync.Mutex
	entries []RunLogEntry
}

// NewRunLog creates an empty RunLog echoing to the given Logger.
func NewRunLog(logger *Logger) *RunLog {
	return &RunLog{logger: logger}
}

// Logf appends an informational line.
func (r *RunLog) Logf(format string, args ...any) {
	r.append(fmt.Sprintf(format, args...), false)
	r.logger.Info(format, args...)
}

// Errorf appends an error line.
func (r *RunLog) Errorf(format string, args ...any) {
	r.append(fmt.Sprintf(format, args...), true)
	r.logger.Error(format, args...)
}

func (r *RunLog) append(msg string, isErr bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, RunLogEntry{At: time.Now(), Message: msg, IsError: isErr})
}

// Len returns the number of accumulated entries.
func (r *RunLog) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Render serializes the accumulated entries into the flush artifact,
// one timestamped line per entry.
func (r *RunLog) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, e := range r.entries {
		level := "INFO "
		if e.IsError {
			level = "ERROR"
		}
		fmt.Fprintf(&b, "[%s] %s %s\n", e.At.Format("2006-01-02 15:04:05"), level, e.Message)
	}
	return b.String()
}
