package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": 2})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "generator")
	l.Infow("generated", map[string]any{"trips": 10})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "generator", line["component"])
	assert.Equal(t, "generated", line["message"])
	assert.EqualValues(t, 10, line["trips"])
	assert.Equal(t, "info", line["level"])
}

func TestWriterLoggerDropsDebugByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "x")
	l.Debugf("hidden")
	assert.Zero(t, buf.Len())
}
