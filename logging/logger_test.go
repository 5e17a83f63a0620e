package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "debug", "json")

	logger.Info("turn started", "conversation_id", "c1", "iterations", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "turn started", entry["message"])
	assert.Equal(t, "c1", entry["conversation_id"])
	assert.Equal(t, float64(3), entry["iterations"])
}

func TestZerologLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "warn", "json")

	logger.Debug("hidden")
	logger.Info("also hidden")
	assert.Zero(t, buf.Len())

	logger.Error("visible", "error", "boom")
	assert.NotZero(t, buf.Len())
}

func TestZerologDanglingKeyDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "info", "json")

	logger.Info("msg", "key1", "v1", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "v1", entry["key1"])
	_, exists := entry["dangling"]
	assert.False(t, exists)
}

func TestNoOpLoggerIsSilent(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("x")
	l.Info("x", "k", "v")
	l.Warn("x")
	l.Error("x")
}
