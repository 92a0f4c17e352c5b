package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type middlewareMetrics struct {
	rateLimitDecisions *prometheus.CounterVec
	panicsRecovered    prometheus.Counter
}

var (
	middlewareMetricsInstance *middlewareMetrics
	middlewareMetricsOnce     sync.Once
)

// InitMetrics registers the middleware metrics with registry, or with
// the default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	middlewareMetricsOnce.Do(func() {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if registry != nil {
			registerer = registry
		}
		factory := promauto.With(registerer)
		middlewareMetricsInstance = &middlewareMetrics{
			rateLimitDecisions: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "middleware",
					Name:      "rate_limit_decisions_total",
					Help:      "Total number of rate limiter decisions",
				},
				[]string{"scope", "decision"},
			),
			panicsRecovered: factory.NewCounter(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "middleware",
					Name:      "panics_recovered_total",
					Help:      "Total number of panics recovered",
				},
			),
		}
	})
}

func getMiddlewareMetrics() *middlewareMetrics {
	InitMetrics(nil)
	return middlewareMetricsInstance
}
