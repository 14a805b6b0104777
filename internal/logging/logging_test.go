package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWhenNotATerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("hidden")
	logger.Info("tweeted", "id", 42)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tweeted", line["msg"])
	assert.Equal(t, float64(42), line["id"])
}

func TestNewDebugLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
