package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"TRACE":   LevelDebug,
		" info ":  LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelDisabled,
	}
	for raw, want := range cases {
		got, ok := ParseLevel(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseLevel("")
	assert.False(t, ok)
	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestZerolog_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, Config{Level: LevelDebug, Format: FormatJSON, App: "test"})

	logger.Info("published", "context", "orders", "count", 3, "err", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "published", line["message"])
	assert.Equal(t, "orders", line["context"])
	assert.Equal(t, float64(3), line["count"])
	assert.Equal(t, "boom", line["err"])
	assert.Equal(t, "test", line["app"])
	assert.Equal(t, "info", line["level"])
}

func TestZerolog_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, Config{Level: LevelWarn, Format: FormatJSON})

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", "dangling")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "!BADKEY")
}

func TestSlog_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlog(&buf, Config{Level: LevelInfo})

	logger.Debug("hidden")
	logger.Info("connected", "member", "m1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=connected")
	assert.Contains(t, out, "member=m1")
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		logger.Error("nothing", "k", "v")
	})
}
