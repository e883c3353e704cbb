package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubledger/reconcile/internal/infrastructure/config"
)

func TestMavenHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "info"})

	logger.With("system", "repair").Info("Repair complete", "links_removed", 2, "note", "dry run")

	line := buf.String()
	assert.Regexp(t, `^\[INFO\] \[repair\] \[\d{2}:\d{2}:\d{2}\] Repair complete`, line)
	assert.Contains(t, line, "links_removed=2")
	assert.Contains(t, line, `note="dry run"`)
	assert.NotContains(t, line, "system=")
	assert.NotContains(t, line, "\033[", "no colors when not writing to a terminal")
}

func TestMavenHandler_ComponentTag(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{})

	logger.With(slog.String("component", "linking")).Warn("Transaction missing", "transaction_id", "tx1")
	assert.Contains(t, buf.String(), "[WARN] [linking]")
	assert.NotContains(t, buf.String(), "component=")

	buf.Reset()
	logger.With("system", "api").With("component", "linking").Info("both")
	assert.Contains(t, buf.String(), "[api]", "system wins over component")
}

func TestMavenHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{})

	logger.WithGroup("report").Info("Summary", "scanned", 3, slog.Group("links", "removed", 1))

	assert.Contains(t, buf.String(), "report.scanned=3")
	assert.Contains(t, buf.String(), "report.links.removed=1")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "warn"})

	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "debug", Format: "json"})

	logger.Debug("Auto-match complete", "matched", 4)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "Auto-match complete", entry["msg"])
	assert.Equal(t, float64(4), entry["matched"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
