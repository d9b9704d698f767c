package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, "info") })

	Info("connection accepted", map[string]any{
		"conn_id": 7,
		"error":   errors.New("boom"),
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "connection accepted", line["msg"])
	assert.EqualValues(t, 7, line["conn_id"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, "info") })

	Debug("hidden", nil)
	Info("hidden", nil)
	assert.Zero(t, buf.Len())

	Warn("shown", nil)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
