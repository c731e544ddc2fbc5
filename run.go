package beat

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// Run starts the beat process and blocks until shutdown.
// It handles SIGINT and SIGTERM for graceful shutdown.
//
// Order of operations: startup hooks, scheduler initialization, then the
// HTTP server and dispatch loop run side by side. On shutdown the loop and
// server stop first and shutdown hooks run last.
func (a *App) Run() error {
	if a.scheduler == nil {
		return ErrSchedulerRequired
	}

	baseCtx := a.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, hook := range a.startupHooks {
		if err := hook(ctx); err != nil {
			a.logger.Error("startup hook failed", slog.Any("error", err))
			return errors.Join(ErrStartupFailed, err, a.runShutdownHooks())
		}
	}

	a.scheduler.Initialize(ctx)
	a.logger.Info("periodic schedule loaded", slog.Int("entries", a.scheduler.Len()))

	handler := a.Handler()
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return errors.Join(err, a.runShutdownHooks())
	}
	a.listenMu.Lock()
	a.listener = ln
	a.listenMu.Unlock()
	a.server.Handler = handler

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		a.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.loop != nil {
		g.Go(func() error {
			return a.loop.Run(gctx)
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.done:
			stopRun()
		}

		a.logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer shutdownCancel()
		return a.server.Shutdown(shutdownCtx)
	})

	var errs []error
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	if err := a.runShutdownHooks(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	a.logger.Info("shutdown completed")
	return nil
}

// Stop triggers graceful shutdown programmatically.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

func (a *App) runShutdownHooks() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, hook := range a.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			a.logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	return errors.Join(errs...)
}
