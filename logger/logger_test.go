package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLoggerWithSink(&buf, LevelWarn)
	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("warned about %s", "something")
	log.Error("failed")
	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "warned about something")
	assert.Contains(t, out, "failed")
}

func TestConsoleLoggerMetadata(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLoggerWithSink(&buf, LevelDebug)
	log.With(map[string]interface{}{"tier": "memory"}).Debug("hit")
	assert.Contains(t, buf.String(), `tier="memory"`)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLoggerWithSink(&buf, LevelInfo)
	log.With(map[string]interface{}{"key": "v1:search"}).Info("stored %d bytes", 42)

	var payload map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "INFO", payload["level"])
	assert.Equal(t, "stored 42 bytes", payload["message"])
	assert.Equal(t, "v1:search", payload["key"])
	assert.NotEmpty(t, payload["ts"])
}

func TestJSONLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLoggerWithSink(&buf, LevelError)
	log.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestTestLoggerCapture(t *testing.T) {
	log := NewTestLogger()
	child := log.With(map[string]interface{}{"component": "cache"})
	log.Info("one")
	child.Warn("two")

	entries := log.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, "one", entries[0].Message)
	assert.Equal(t, LevelWarn, entries[1].Level)
	assert.Equal(t, "cache", entries[1].Metadata["component"])
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nobody hears this")
	assert.Equal(t, log, log.With(map[string]interface{}{"a": 1}))
}

func TestLevelString(t *testing.T) {
	for level, want := range map[LogLevel]string{
		LevelTrace: "TRACE",
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	} {
		assert.Equal(t, want, level.String())
	}
}

func TestGetLevelFromEnv(t *testing.T) {
	t.Setenv("LITFETCH_LOG_LEVEL", "debug")
	assert.Equal(t, LevelDebug, GetLevelFromEnv())
	t.Setenv("LITFETCH_LOG_LEVEL", "ERROR")
	assert.Equal(t, LevelError, GetLevelFromEnv())
	t.Setenv("LITFETCH_LOG_LEVEL", "bogus")
	assert.Equal(t, LevelInfo, GetLevelFromEnv())
}

func TestConsoleTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLoggerWithSink(&buf, LevelInfo)
	log.Info("x")
	// One line, timestamp first.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}
