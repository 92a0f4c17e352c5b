package main

import (
	"net/http"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/middleware"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// middlewareChainResult holds the result of building the middleware chain.
type middlewareChainResult struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// buildMiddlewareChain builds the middleware chain.
// The execution order (outermost executes first):
// Recovery -> RequestID -> Logging -> Tracing -> Metrics -> RateLimit -> [dispatcher]
func buildMiddlewareChain(
	handler http.Handler,
	cfg *config.Config,
	logger observability.Logger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) middlewareChainResult {
	rateLimit, rateLimiter := middleware.RateLimitFromConfig(cfg.RateLimit, logger, metrics)

	h := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		observability.TracingMiddleware(tracer),
		observability.MetricsMiddleware(metrics),
		rateLimit,
	)(handler)

	return middlewareChainResult{
		handler:     h,
		rateLimiter: rateLimiter,
	}
}
