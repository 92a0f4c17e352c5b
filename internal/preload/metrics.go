package preload

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type preloadMetrics struct {
	plans         *prometheus.CounterVec
	scriptsServed prometheus.Counter
}

var (
	preloadMetricsInstance *preloadMetrics
	preloadMetricsOnce     sync.Once
)

// InitMetrics registers the preload metrics with registry, or with the
// default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	preloadMetricsOnce.Do(func() {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if registry != nil {
			registerer = registry
		}
		factory := promauto.With(registerer)
		preloadMetricsInstance = &preloadMetrics{
			plans: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "preload",
					Name:      "hints_total",
					Help:      "Total number of pages given prefetch hints by method",
				},
				[]string{"method"},
			),
			scriptsServed: factory.NewCounter(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "preload",
					Name:      "scripts_served_total",
					Help:      "Total number of fallback preload scripts served",
				},
			),
		}
		for _, m := range []Method{MethodSpeculation, MethodScript} {
			preloadMetricsInstance.plans.WithLabelValues(string(m))
		}
	})
}

func getPreloadMetrics() *preloadMetrics {
	InitMetrics(nil)
	return preloadMetricsInstance
}
