package logger

import (
	"fmt"
	"sync"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Level    LogLevel
	Message  string
	Metadata map[string]interface{}
}

type testSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// TestLogger captures log entries for assertions in tests.
type TestLogger struct {
	sink     *testSink
	metadata map[string]interface{}
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a Logger that records every entry in memory.
func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &testSink{}}
}

func (t *TestLogger) With(metadata map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(t.metadata)+len(metadata))
	for k, v := range t.metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return &TestLogger{sink: t.sink, metadata: merged}
}

// Entries returns a copy of everything logged so far.
func (t *TestLogger) Entries() []LogEntry {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	out := make([]LogEntry, len(t.sink.entries))
	copy(out, t.sink.entries)
	return out
}

func (t *TestLogger) log(level LogLevel, msg string, args ...interface{}) {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.entries = append(t.sink.entries, LogEntry{
		Level:    level,
		Message:  fmt.Sprintf(msg, args...),
		Metadata: t.metadata,
	})
}

func (t *TestLogger) Trace(msg string, args ...interface{}) { t.log(LevelTrace, msg, args...) }
func (t *TestLogger) Debug(msg string, args ...interface{}) { t.log(LevelDebug, msg, args...) }
func (t *TestLogger) Info(msg string, args ...interface{})  { t.log(LevelInfo, msg, args...) }
func (t *TestLogger) Warn(msg string, args ...interface{})  { t.log(LevelWarn, msg, args...) }
func (t *TestLogger) Error(msg string, args ...interface{}) { t.log(LevelError, msg, args...) }
