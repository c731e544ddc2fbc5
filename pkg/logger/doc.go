// Package logger builds the structured loggers used by the beat and worker
// processes.
//
// Loggers are plain *slog.Logger values. New picks a JSON or text handler
// from Config, sets the minimum level and, when a Sentry DSN is configured,
// fans records out to Sentry as well. Errors become Sentry issues; warnings
// are kept as Sentry logs unless SENTRY_MIN_LEVEL is "error".
//
//	var cfg logger.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	log := logger.New(cfg, logger.DefaultExtractors()...)
//	defer logger.Flush(2 * time.Second)
//
// # Context attributes
//
// A ContextExtractor turns a context value into a log attribute on every
// call. The package ships extractors for the periodic task name and the
// process component:
//
//	ctx = logger.WithDefinition(ctx, "nightly-report")
//	log.WarnContext(ctx, "dropping expired periodic fire")
//	// {"level":"WARN","msg":"dropping expired periodic fire","periodic_task":"nightly-report"}
//
// LogHandlerDecorator applies extractors to any slog.Handler.
//
// Use NewNope where a logger is optional and none was supplied.
package logger
