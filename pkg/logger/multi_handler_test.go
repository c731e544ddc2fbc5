package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler(t *testing.T) {
	t.Parallel()

	t.Run("single handler is returned as is", func(t *testing.T) {
		t.Parallel()

		h := slog.NewTextHandler(&bytes.Buffer{}, nil)
		assert.Same(t, h, newMultiHandler(h, nil))
	})

	t.Run("failing handler does not block the others", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		local := slog.NewJSONHandler(&buf, nil)
		h := newMultiHandler(failingHandler{local}, local)

		log := slog.New(h).With("component", "beat")
		log.Info("schedule loaded")

		assert.Contains(t, buf.String(), `"msg":"schedule loaded"`)
		assert.Contains(t, buf.String(), `"component":"beat"`)

		err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sink down")
	})

	t.Run("enabled if any handler is", func(t *testing.T) {
		t.Parallel()

		quiet := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
		loud := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
		h := newMultiHandler(quiet, loud)

		assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
		assert.False(t, newMultiHandler(quiet, quiet).Enabled(context.Background(), slog.LevelInfo))
	})
}
