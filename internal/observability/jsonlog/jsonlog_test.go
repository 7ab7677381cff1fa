package jsonlog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, FormatJSON)

	logger.Info("task claimed", "task_id", "abc")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "task claimed", m["msg"])
	assert.Equal(t, "abc", m["task_id"])
	assert.Contains(t, m, "ts")
	assert.NotContains(t, m, "time")
	assert.True(t, strings.HasSuffix(m["ts"].(string), "Z"))
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, FormatJSON)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug, FormatText)

	logger.Debug("poll", "n", 3)
	assert.Contains(t, buf.String(), "msg=poll")
	assert.Contains(t, buf.String(), "n=3")
}
