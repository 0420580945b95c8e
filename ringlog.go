package authstate

import (
	"fmt"
	"sync"
	"time"
)

// DefaultRingCapacity bounds how many log entries the diagnostics snapshot
// can carry.
const DefaultRingCapacity = 100

// LogEntry is one captured log line.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// RingLogger keeps the last N log entries in memory for the diagnostics
// reporter while forwarding everything to an inner logger. The capture is
// process-wide mutable state; the mutex keeps it safe for concurrent use.
type RingLogger struct {
	inner    Logger
	capacity int

	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

var _ Logger = (*RingLogger)(nil)

// NewRingLogger wraps inner with a bounded capture. Capacity <= 0 uses the
// default.
func NewRingLogger(inner Logger, capacity int) *RingLogger {
	if inner == nil {
		inner = defLogger{}
	}
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &RingLogger{
		inner:    inner,
		capacity: capacity,
		entries:  make([]LogEntry, capacity),
	}
}

func (r *RingLogger) capture(level, format string, args ...any) {
	r.mu.Lock()
	r.entries[r.next] = LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

func (r *RingLogger) Debug(format string, args ...any) {
	r.capture("debug", format, args...)
	r.inner.Debug(format, args...)
}

func (r *RingLogger) Info(format string, args ...any) {
	r.capture("info", format, args...)
	r.inner.Info(format, args...)
}

func (r *RingLogger) Warn(format string, args ...any) {
	r.capture("warn", format, args...)
	r.inner.Warn(format, args...)
}

func (r *RingLogger) Error(format string, args ...any) {
	r.capture("error", format, args...)
	r.inner.Error(format, args...)
}

// Entries returns the captured entries, oldest first.
func (r *RingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]LogEntry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}

	out := make([]LogEntry, 0, r.capacity)
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}
