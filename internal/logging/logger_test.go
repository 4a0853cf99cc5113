package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", "json", &buf)

	l.Info("hidden")
	l.Warn("shown", l.Args("path", "/auth/me"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "/auth/me")
}

func TestErrMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)

	l.Error("login failed", Err(l, errors.New(`body {"password":"hunter2"}`)))

	assert.NotContains(t, buf.String(), "hunter2")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, pterm.LogLevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, pterm.LogLevelWarn, parseLevel("warning"))
	assert.Equal(t, pterm.LogLevelInfo, parseLevel(""))
}

func TestDiscardWritesNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		l := Discard()
		l.Error("nothing", l.Args("k", "v"))
	})
}
