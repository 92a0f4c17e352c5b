package rewrite

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Injection kind label values.
const (
	injectionHead = "head"
	injectionBody = "body"
)

type rewriteMetrics struct {
	attributes prometheus.Counter
	injections *prometheus.CounterVec
}

var (
	rewriteMetricsInstance *rewriteMetrics
	rewriteMetricsOnce     sync.Once
)

// InitMetrics registers the rewrite metrics with registry, or with the
// default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	rewriteMetricsOnce.Do(func() {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		if registry != nil {
			registerer = registry
		}
		factory := promauto.With(registerer)
		rewriteMetricsInstance = &rewriteMetrics{
			attributes: factory.NewCounter(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "rewrite",
					Name:      "html_attributes_total",
					Help:      "Total number of HTML attribute values moved under a mount",
				},
			),
			injections: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "rewrite",
					Name:      "html_injections_total",
					Help:      "Total number of markup injections by position",
				},
				[]string{"position"},
			),
		}
		for _, p := range []string{injectionHead, injectionBody} {
			rewriteMetricsInstance.injections.WithLabelValues(p)
		}
	})
}

func getRewriteMetrics() *rewriteMetrics {
	InitMetrics(nil)
	return rewriteMetricsInstance
}

func (m *rewriteMetrics) recordHTML(stats HTMLStats) {
	if stats.Attributes > 0 {
		m.attributes.Add(float64(stats.Attributes))
	}
	if stats.HeadInjected {
		m.injections.WithLabelValues(injectionHead).Inc()
	}
	if stats.BodyInjected {
		m.injections.WithLabelValues(injectionBody).Inc()
	}
}
