package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("solve finished", slog.Int("trips", 3))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "solve finished", rec["msg"])
	assert.Equal(t, "dronefeed", rec["service"])
	assert.EqualValues(t, 3, rec["trips"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	require.NoError(t, err)
	log.Debug("detour", slog.Int("waypoints", 2))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "waypoints=2")
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud", Format: "json"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New(config.LoggingConfig{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
}
