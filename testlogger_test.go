package modkit

import (
	"strings"
	"sync"
)

// TestLogger captures log entries for assertions in tests.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestLogEntry
}

type TestLogEntry struct {
	Level   string
	Message string
	Args    []any
}

func NewTestLogger() *TestLogger {
	return &TestLogger{entries: make([]TestLogEntry, 0)}
}

func (t *TestLogger) Info(msg string, args ...any)  { t.append("info", msg, args) }
func (t *TestLogger) Error(msg string, args ...any) { t.append("error", msg, args) }
func (t *TestLogger) Warn(msg string, args ...any)  { t.append("warn", msg, args) }
func (t *TestLogger) Debug(msg string, args ...any) { t.append("debug", msg, args) }

func (t *TestLogger) append(level, msg string, args []any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, TestLogEntry{Level: level, Message: msg, Args: args})
}

// Entries returns a copy of all captured entries.
func (t *TestLogger) Entries() []TestLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TestLogEntry(nil), t.entries...)
}

// Contains reports whether any captured message contains the substring.
func (t *TestLogger) Contains(substr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, entry := range t.entries {
		if strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}
