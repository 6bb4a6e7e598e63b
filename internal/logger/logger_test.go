package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(false, buf)

	WithFields(map[string]interface{}{"component": "detector"}).Info("evaluated")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "evaluated", entry["msg"])
	assert.Equal(t, "detector", entry["component"])
}

func TestInit_DebugTextOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(true, buf)

	ForIP("10.0.0.5").Debug("checking")

	out := buf.String()
	assert.True(t, strings.Contains(out, "checking"))
	assert.True(t, strings.Contains(out, "ip=10.0.0.5"))
}

func TestInit_DebugSuppressedInProduction(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(false, buf)

	Log().Debug("hidden")
	assert.Empty(t, buf.String())
}
