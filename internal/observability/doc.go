// Package observability provides logging, metrics, and tracing for the
// microfrontend router.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("route matched",
//	    observability.String("mount", "/docs"),
//	)
//
// # Metrics
//
// Metrics owns a private Prometheus registry. Packages that define
// their own collectors register them through Metrics.Registry so a
// single /metrics endpoint exposes everything.
//
// # Tracing
//
// Tracer configures an OpenTelemetry provider with an optional OTLP
// gRPC exporter. TracingMiddleware opens a server span per request and
// InjectTraceContext propagates it to upstream bindings.
package observability
