package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug, " WARN ": slog.LevelWarn, "error": slog.LevelError,
		"info": slog.LevelInfo, "": slog.LevelInfo, "verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("shown", "key", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["key"])
}

func TestNewLeveledFollowsLevelVar(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	logger := NewLeveled(&buf, lv, "text")

	logger.Debug("first")
	assert.Empty(t, buf.String())

	lv.Set(slog.LevelDebug)
	logger.Debug("second")
	assert.Contains(t, buf.String(), "second")
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(New(&buf, "debug", "text"))

	r.Record(context.Background(), "add_item", 3*time.Millisecond, nil)
	r.Record(context.Background(), "create_list", time.Millisecond, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "op=add_item")
	assert.Contains(t, out, `level=WARN msg="operation failed" op=create_list`)
	assert.Contains(t, out, "error=boom")
}
