package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a logger writing to stdout in the configured format, with
// optional context extractors. Records are also shipped to Sentry when a
// DSN is configured.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, extractors...)
}

// NewWithWriter is New with a custom destination for the local handler.
func NewWithWriter(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	local := newLocalHandler(w, cfg)

	var handler slog.Handler = local
	if sh := newSentryHandler(cfg.Sentry, local); sh != nil {
		handler = newMultiHandler(local, sh)
	}
	return slog.New(NewLogHandlerDecorator(handler, extractors...))
}

func newLocalHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, FormatText) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
