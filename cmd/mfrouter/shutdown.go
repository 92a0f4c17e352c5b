package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// runRouter serves traffic until a signal arrives on sigCh or the
// public listener fails, then shuts everything down.
func runRouter(ctx context.Context, app *application, configPath string, sigCh <-chan os.Signal) {
	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting router", observability.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	startMetricsServerIfEnabled(app)
	watcher := startConfigWatcher(ctx, app, configPath)

	select {
	case sig := <-sigCh:
		app.logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err, ok := <-serveErr:
		if ok {
			app.logger.Error("router listener failed", observability.Error(err))
		}
	case <-ctx.Done():
		app.logger.Info("context canceled, shutting down")
	}

	shutdown(app, watcher)
}

// shutdown stops the watcher, drains both listeners and flushes
// tracing within the configured shutdown timeout.
func shutdown(app *application, watcher *config.Watcher) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("failed to stop router gracefully", observability.Error(err))
	}

	if app.metricsServer != nil {
		app.logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	app.currentRegistry().Close()

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	app.logger.Info("router stopped")
}
