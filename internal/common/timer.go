// Package common holds small helpers shared by the scan stages.
package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures the wall time of one named processing stage.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// NewTimer starts an unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer starts a timer for the given stage.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop freezes the timer and returns the elapsed duration. Further calls
// return the same value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed returns the running time, or the frozen duration after Stop.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}

// Name returns the stage name (empty for unnamed timers).
func (t *Timer) Name() string {
	return t.name
}

// LogValue renders the timer as a slog group of name and milliseconds.
func (t *Timer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stage", t.name),
		slog.Float64("ms", float64(t.Elapsed().Microseconds())/1000),
	)
}

func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.Elapsed())
	}
	return t.Elapsed().String()
}
