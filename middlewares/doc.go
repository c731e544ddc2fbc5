// Package middlewares provides net/http middleware for the beat status server.
//
// # Request ID
//
// RequestID assigns a unique ID to each request. It reuses an incoming
// X-Request-ID or X-Correlation-ID header and otherwise generates a
// time-ordered UUID. The ID is echoed in the response header and stored
// in the request context:
//
//	r := chi.NewRouter()
//	r.Use(middlewares.RequestID())
//
// Pass RequestIDExtractor to logger.New to add request_id to every log
// record written with the request context.
//
// # Recover
//
// Recover catches panics in handlers, logs them with a stack trace and
// responds with 500 Internal Server Error:
//
//	r.Use(middlewares.Recover(middlewares.WithRecoverLogger(log)))
//
// WithRecoverHook receives the recovered PanicError, for example to report
// it to Sentry.
package middlewares
