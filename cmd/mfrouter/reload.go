package main

import (
	"context"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/middleware"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// startConfigWatcher watches the configuration file and republishes
// the route snapshot on every valid change. It returns nil when no
// file is configured or the watcher cannot start.
func startConfigWatcher(ctx context.Context, app *application, configPath string) *config.Watcher {
	if configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, app.applyConfig,
		config.WithLogger(app.logger),
		config.WithErrorCallback(func(error) {
			app.metrics.RecordConfigReload(false)
		}),
	)
	if err != nil {
		app.logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		app.logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return nil
	}

	return watcher
}

// applyConfig rebuilds forwarders and routes from cfg and publishes
// the result. On failure the previous snapshot keeps serving.
// Listener, rate limit and tracing settings need a restart.
func (app *application) applyConfig(cfg *config.Config) {
	registry, snapshot, err := buildSnapshot(cfg, app.logger)
	if err != nil {
		app.logger.Error("configuration reload rejected, keeping previous routes",
			observability.Error(err),
		)
		app.metrics.RecordConfigReload(false)
		return
	}

	app.mu.Lock()
	previous := app.registry
	app.registry = registry
	app.mu.Unlock()

	app.dispatcher.Publish(snapshot)
	middleware.SetGlobalIPExtractor(middleware.NewClientIPExtractor(cfg.Server.TrustedProxies))
	app.metrics.RecordConfigReload(true)

	// In-flight requests keep their forwarders; only idle
	// connections of the old pool are released.
	if previous != nil {
		previous.Close()
	}

	app.logger.Info("route table republished",
		observability.Int("routes", snapshot.Table.Len()),
		observability.Strings("bindings", registry.Names()),
	)
}
