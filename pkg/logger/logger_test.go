package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	Init("production")
	var buf bytes.Buffer
	SetOutput(&buf)
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestInfo_KeyValues(t *testing.T) {
	buf := capture(t)

	Info("experiment_rebalance", "experiment_id", "exp-1", "arms", 3, "took", 1500*time.Millisecond, "ok", true)

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "experiment_rebalance", entry["message"])
	assert.Equal(t, "exp-1", entry["experiment_id"])
	assert.Equal(t, float64(3), entry["arms"])
	assert.Equal(t, true, entry["ok"])
	assert.Contains(t, entry, "took")
}

func TestError_LoneError(t *testing.T) {
	buf := capture(t)

	Error("Failed to start", errors.New("boom"))

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestDebug_FilteredOutsideDevelopment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	buf := capture(t)

	Debug("hidden")
	assert.Zero(t, buf.Len())

	SetLevel("debug")
	Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	SetLevel("nonsense")
	Debug("still shown")
	assert.Contains(t, buf.String(), "still shown")
}
