package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientErr struct{}

func (clientErr) Error() string  { return "bad input" }
func (clientErr) Expected() bool { return true }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestExitMethodWithErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	ExitMethodWithError("Svc.Op", fmt.Errorf("wrapped: %w", clientErr{}))
	ExitMethodWithError("Svc.Op", errors.New("db down"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "WARN", first["level"])
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "gearloan", second["app"])
}

func TestStockMovement(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	StockMovement("item-1", -2, 0, "reserve")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "item-1", entry["item_id"])
	assert.Equal(t, float64(-2), entry["available_delta"])
	assert.Equal(t, "reserve", entry["reason"])
}
