package main

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/mfrouter/internal/backend"
	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/health"
	"github.com/vyrodovalexey/mfrouter/internal/middleware"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/preload"
	"github.com/vyrodovalexey/mfrouter/internal/proxy"
	"github.com/vyrodovalexey/mfrouter/internal/rewrite"
	"github.com/vyrodovalexey/mfrouter/internal/router"
)

const readHeaderTimeout = 10 * time.Second

// application holds all application components.
type application struct {
	server        *http.Server
	metricsServer *http.Server
	dispatcher    *proxy.Dispatcher
	healthChecker *health.Checker
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	rateLimiter   *middleware.RateLimiter
	config        *config.Config
	logger        observability.Logger

	mu       sync.RWMutex
	registry *backend.Registry
}

// initApplication wires every component and publishes the first route
// snapshot. The returned application is not yet listening.
func initApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("mfrouter")
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	initPackageMetrics(metrics.Registry())

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	registry, snapshot, err := buildSnapshot(cfg, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := proxy.NewDispatcher(proxy.WithDispatcherLogger(logger))
	dispatcher.Publish(snapshot)

	app := &application{
		dispatcher:    dispatcher,
		healthChecker: health.NewChecker(version),
		metrics:       metrics,
		tracer:        tracer,
		config:        cfg,
		logger:        logger,
		registry:      registry,
	}
	app.healthChecker.RegisterCheck("routes", health.RoutesLoadedCheck(dispatcher.Ready))
	app.healthChecker.RegisterCheck("bindings", health.BindingsCheck(app.bindingNames))

	middleware.SetGlobalIPExtractor(middleware.NewClientIPExtractor(cfg.Server.TrustedProxies))

	chain := buildMiddlewareChain(dispatcher, cfg, logger, metrics, tracer)
	app.rateLimiter = chain.rateLimiter

	app.server = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           chain.handler,
		ReadTimeout:       cfg.Server.ReadTimeout.Duration(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:       cfg.Server.IdleTimeout.Duration(),
	}

	logger.Info("route table published",
		observability.Int("routes", snapshot.Table.Len()),
		observability.Int("asset_prefixes", snapshot.Assets.Len()),
	)

	return app, nil
}

// initPackageMetrics registers every package collector with the
// process registry so they appear on the metrics endpoint.
func initPackageMetrics(registry *prometheus.Registry) {
	router.InitMetrics(registry)
	backend.InitMetrics(registry)
	rewrite.InitMetrics(registry)
	preload.InitMetrics(registry)
	proxy.InitMetrics(registry)
	middleware.InitMetrics(registry)
	health.InitMetrics(registry)
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config) (*observability.Tracer, error) {
	tc := cfg.Observability.Tracing
	return observability.NewTracer(observability.TracerConfig{
		ServiceName:  tc.ServiceName,
		OTLPEndpoint: tc.OTLPEndpoint,
		SamplingRate: tc.SamplingRate,
		Enabled:      tc.Enabled,
	})
}

// buildSnapshot creates the forwarders for cfg and compiles its routes
// against them. The registry is closed again when compilation fails.
func buildSnapshot(cfg *config.Config, logger observability.Logger) (*backend.Registry, *proxy.Snapshot, error) {
	registry := backend.NewRegistry(logger)
	if err := registry.LoadFromConfig(cfg.Bindings); err != nil {
		registry.Close()
		return nil, nil, fmt.Errorf("failed to load bindings: %w", err)
	}

	snapshot, err := proxy.SnapshotFromConfig(cfg, registry)
	if err != nil {
		registry.Close()
		return nil, nil, fmt.Errorf("failed to build route table: %w", err)
	}

	return registry, snapshot, nil
}

func (app *application) currentRegistry() *backend.Registry {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.registry
}

func (app *application) bindingNames() []string {
	return app.currentRegistry().Names()
}
