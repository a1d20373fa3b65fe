package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Info("server listening", "port", 9000)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "server listening")
	assert.Contains(t, out, "port=9000")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Warn("client disconnected", "address", "127.0.0.1:4242")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "client disconnected", record["msg"])
	assert.Equal(t, "127.0.0.1:4242", record["address"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Debug("should be dropped")
	Info("should be dropped too")
	Error("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	SetLevel("VERBOSE") // no such level; current level must survive

	Info("still logged")
	assert.Contains(t, buf.String(), "still logged")
}

func TestColorOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", true)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Info("colored", "k", "v")

	out := buf.String()
	assert.Contains(t, out, colorGreen)
	assert.True(t, strings.Contains(out, colorCyan), "attr keys should be colorized")
}
