package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beat/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{Level: "info", Format: logger.FormatJSON}, logger.DefaultExtractors()...)

	ctx := logger.WithComponent(logger.WithDefinition(context.Background(), "nightly"), "beat")
	log.DebugContext(ctx, "hidden")
	log.InfoContext(ctx, "dispatched", slog.String("task", "reports.build"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "dispatched", rec["msg"])
	assert.Equal(t, "nightly", rec["periodic_task"])
	assert.Equal(t, "beat", rec["component"])
	assert.Equal(t, "reports.build", rec["task"])
}

func TestNewWithWriter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{Level: "debug", Format: "TEXT"})
	log.Debug("refreshed", slog.Int("entries", 2))

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=refreshed")
	assert.Contains(t, out, "entries=2")
}

func TestDefinitionExtractor(t *testing.T) {
	t.Parallel()

	_, ok := logger.DefinitionExtractor(context.Background())
	assert.False(t, ok)

	_, ok = logger.DefinitionExtractor(logger.WithDefinition(context.Background(), ""))
	assert.False(t, ok)

	attr, ok := logger.DefinitionExtractor(logger.WithDefinition(context.Background(), "cleanup"))
	require.True(t, ok)
	assert.Equal(t, "periodic_task", attr.Key)
	assert.Equal(t, "cleanup", attr.Value.String())
}

func TestLogHandlerDecorator_SkipsNilExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := logger.NewLogHandlerDecorator(slog.NewJSONHandler(&buf, nil), nil, logger.DefinitionExtractor)
	log := slog.New(h).With(slog.String("static", "yes")).WithGroup("g")

	log.InfoContext(logger.WithDefinition(context.Background(), "x"), "hello", slog.Int("n", 1))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "yes", rec["static"])
	group, ok := rec["g"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", group["periodic_task"])
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Error("discarded") })
}

func TestFlush_WithoutSentry(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { logger.Flush(0) })
}
