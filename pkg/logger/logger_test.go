package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: level})
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_WritesJSONEntry(t *testing.T) {
	l, buf := captureLogger(LevelInfo)

	l.Info("request completed",
		String("method", "GET"),
		Int("status", 200),
		Int64("duration_ms", 12),
	)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, "GET", entry.Fields["method"])
	assert.EqualValues(t, 200, entry.Fields["status"])
}

func TestLogger_SuppressesBelowLevel(t *testing.T) {
	l, buf := captureLogger(LevelWarn)

	l.Debug("noise")
	l.Info("more noise")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestErr_NilError(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}
