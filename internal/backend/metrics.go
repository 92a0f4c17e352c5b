package backend

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

type backendMetrics struct {
	forwardDuration *prometheus.HistogramVec
	forwardErrors   *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
}

var (
	backendMetricsInstance *backendMetrics
	backendMetricsOnce     sync.Once
)

// InitMetrics registers the backend metrics with registry, or with the
// default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	backendMetricsOnce.Do(func() {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if registry != nil {
			registerer = registry
		}
		factory := promauto.With(registerer)
		backendMetricsInstance = &backendMetrics{
			forwardDuration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "mfrouter",
					Subsystem: "backend",
					Name:      "forward_duration_seconds",
					Help:      "Time until upstream response headers arrived",
					Buckets: []float64{
						.001, .005, .01, .025,
						.05, .1, .25, .5,
						1, 2.5, 5, 10,
					},
				},
				[]string{"binding", "status_class"},
			),
			forwardErrors: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "backend",
					Name:      "forward_errors_total",
					Help:      "Total number of failed upstream requests",
				},
				[]string{"binding", "error_type"},
			),
			breakerState: factory.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "mfrouter",
					Subsystem: "backend",
					Name:      "circuit_breaker_state",
					Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
				},
				[]string{"binding"},
			),
		}
	})
}

func getBackendMetrics() *backendMetrics {
	InitMetrics(nil)
	return backendMetricsInstance
}

func (m *backendMetrics) recordError(binding string, err error) {
	m.forwardErrors.WithLabelValues(binding, errorType(err)).Inc()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, util.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, util.ErrTimeout):
		return "timeout"
	case errors.Is(err, util.ErrBackendUnavail):
		return "unavailable"
	default:
		return "canceled"
	}
}
