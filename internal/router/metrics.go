package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match outcome label values.
const (
	outcomeMatched  = "matched"
	outcomeFallback = "fallback"
	outcomeNotFound = "not_found"
)

type routerMetrics struct {
	matches     *prometheus.CounterVec
	tableRoutes prometheus.Gauge
}

var (
	routerMetricsInstance *routerMetrics
	routerMetricsOnce     sync.Once
)

// InitMetrics registers the router metrics with registry, or with the
// default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	routerMetricsOnce.Do(func() {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if registry != nil {
			registerer = registry
		}
		factory := promauto.With(registerer)
		routerMetricsInstance = &routerMetrics{
			matches: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "router",
					Name:      "matches_total",
					Help:      "Total number of route lookups by outcome",
				},
				[]string{"outcome"},
			),
			tableRoutes: factory.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "mfrouter",
					Subsystem: "router",
					Name:      "routes",
					Help:      "Number of routes in the active table",
				},
			),
		}
		for _, o := range []string{outcomeMatched, outcomeFallback, outcomeNotFound} {
			routerMetricsInstance.matches.WithLabelValues(o)
		}
	})
}

func getRouterMetrics() *routerMetrics {
	InitMetrics(nil)
	return routerMetricsInstance
}

// RecordTableSize publishes the route count of a newly activated table.
func RecordTableSize(t *Table) {
	getRouterMetrics().tableRoutes.Set(float64(t.Len()))
}
