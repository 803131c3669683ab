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

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("run_id", "r-1"))

	log.Info("report written",
		String("as_of", "2024-05-31"),
		Int("rows", 250),
		Float64("score", 41.5),
		Bool("inline", true),
		Duration("took", 1500*time.Millisecond),
		Strings("charts", []string{"fg_line", "components"}),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "report written", got["message"])
	assert.Equal(t, "r-1", got["run_id"])
	assert.Equal(t, "2024-05-31", got["as_of"])
	assert.EqualValues(t, 250, got["rows"])
	assert.EqualValues(t, 41.5, got["score"])
	assert.Equal(t, true, got["inline"])
	assert.EqualValues(t, 1500, got["took"])
	assert.Equal(t, "fg_line, components", got["charts"])
	assert.Equal(t, "boom", got["error"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
