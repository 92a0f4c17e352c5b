package health

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type healthMetrics struct {
	checksTotal *prometheus.CounterVec
	checkStatus *prometheus.GaugeVec
}

var (
	healthMetricsInstance *healthMetrics
	healthMetricsOnce     sync.Once
)

// InitMetrics registers the health metrics with registry, or with the
// default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	healthMetricsOnce.Do(func() {
		var registerer prometheus.Registerer
		if registry != nil {
			registerer = registry
		} else {
			registerer = prometheus.DefaultRegisterer
		}
		factory := promauto.With(registerer)
		healthMetricsInstance = &healthMetrics{
			checksTotal: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "health",
					Name:      "checks_total",
					Help:      "Total number of health checks performed",
				},
				[]string{"type"},
			),
			checkStatus: factory.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "mfrouter",
					Subsystem: "health",
					Name:      "check_status",
					Help:      "Current health check status (1=healthy, 0=unhealthy)",
				},
				[]string{"check"},
			),
		}
		for _, checkType := range []string{"health", "liveness", "readiness"} {
			healthMetricsInstance.checksTotal.WithLabelValues(checkType)
		}
		healthMetricsInstance.checkStatus.WithLabelValues("overall")
	})
}

func getHealthMetrics() *healthMetrics {
	InitMetrics(nil)
	return healthMetricsInstance
}

func statusValue(s Status) float64 {
	if s == StatusUnhealthy {
		return 0
	}
	return 1
}
