package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer Configure(false, false)

	Configure(false, false)
	Info("hidden by default")
	Warn("shown by default")
	assert.NotContains(t, buf.String(), "hidden by default")
	assert.Contains(t, buf.String(), "shown by default")

	buf.Reset()
	Configure(true, false)
	Info("info with debug")
	Debug("debug needs verbose")
	assert.Contains(t, buf.String(), "info with debug")
	assert.NotContains(t, buf.String(), "debug needs verbose")

	buf.Reset()
	Configure(false, true)
	Debug("debug with verbose")
	assert.Contains(t, buf.String(), "debug with verbose")
}

func TestComponentFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	Configure(true, false)
	defer Configure(false, false)

	Registry().Info("loaded", "tables", 13)
	out := buf.String()
	assert.Contains(t, out, "component=registry")
	assert.Contains(t, out, "tables=13")

	buf.Reset()
	WithFields(map[string]interface{}{"table": "PLOT"}).Warn("odd", "dangling")
	assert.Contains(t, buf.String(), "table=PLOT")
	assert.Contains(t, buf.String(), "dangling=(missing)")
}
