package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, INFO)

	logger.Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	logger.Info("game %s created", "abc")
	assert.Contains(t, buf.String(), "game abc created")
}

func TestLogErrorIncludesCode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, DEBUG)

	logger.LogError(types.WrapError(types.ErrDatabaseError, "failed to load game", errors.New("locked")))

	out := buf.String()
	assert.Contains(t, out, "DATABASE_ERROR")
	assert.Contains(t, out, "failed to load game")
	assert.Contains(t, out, "locked")
}

func TestLogErrorPlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, DEBUG)

	logger.LogError(errors.New("boom"))

	assert.Contains(t, buf.String(), "boom")
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, DEBUG).With("game", "g-1")

	logger.Warn("slow commit")

	assert.Contains(t, buf.String(), "game=g-1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel(""))
}
