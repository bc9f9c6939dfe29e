// Package logsink implements the append-only fail log for qa-runner.
//
// The log is a plain text file with one line per event. It is removed
// at the start of every run so that entries from a previous run never
// survive, then appended to for the remainder of the process lifetime.
// The wrapper is the only writer; the external Preparer and Worker
// maintain their own logs.
package logsink

import (
	"fmt"
	"os"
	"time"
)

// Sink is an append-only text log backed by a single file.
//
// Each Append opens, writes, and closes the file rather than holding a
// long-lived handle. This mirrors shell-style `echo >> file` semantics:
// every line is flushed to disk immediately, so the log is complete up
// to the last event even if the process is killed mid-run.
type Sink struct {
	// path is the log file location.
	path string

	// now returns the current time for line timestamps.
	// Overridable in tests for deterministic output.
	now func() time.Time
}

// New creates a Sink writing to the given file path.
// The file is not created until the first Append; call Reset first to
// clear any previous run's log.
func New(path string) *Sink {
	return &Sink{
		path: path,
		now:  time.Now,
	}
}

// Path returns the log file location.
func (s *Sink) Path() string {
	return s.path
}

// Reset deletes the log file if it exists. A missing file is not an
// error: the contract is only that no stale entries survive into the
// new run.
func (s *Sink) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset log file %s: %w", s.path, err)
	}
	return nil
}

// Append writes one timestamped event line to the log, creating the
// file if needed. The format string follows fmt.Printf conventions.
func (s *Sink) Append(format string, args ...interface{}) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	line := fmt.Sprintf("%s %s\n",
		s.now().Format("2006-01-02 15:04:05"),
		fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to log file %s: %w", s.path, err)
	}
	return nil
}
