package proxy

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Response handling label values.
const (
	handlingHTML        = "html"
	handlingCSS         = "css"
	handlingRedirect    = "redirect"
	handlingPassthrough = "passthrough"
	handlingHeadersOnly = "headers_only"
	handlingOversize    = "oversize"
	handlingUndecodable = "undecodable"
	handlingPreload     = "preload_script"
)

type proxyMetrics struct {
	responses       *prometheus.CounterVec
	rewriteDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	snapshots       prometheus.Counter
}

var (
	proxyMetricsInstance *proxyMetrics
	proxyMetricsOnce     sync.Once
)

// InitMetrics registers the dispatcher metrics with registry, or with
// the default registerer when registry is nil. Later calls are no-ops.
func InitMetrics(registry *prometheus.Registry) {
	proxyMetricsOnce.Do(func() {
		var registerer prometheus.Registerer
		if registry != nil {
			registerer = registry
		} else {
			registerer = prometheus.DefaultRegisterer
		}
		factory := promauto.With(registerer)
		proxyMetricsInstance = &proxyMetrics{
			responses: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "proxy",
					Name:      "responses_total",
					Help:      "Total number of proxied responses by handling",
				},
				[]string{"handling"},
			),
			rewriteDuration: factory.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "mfrouter",
					Subsystem: "proxy",
					Name:      "rewrite_duration_seconds",
					Help:      "Time spent decoding and rewriting response bodies",
					Buckets: []float64{
						.0001, .0005, .001, .005,
						.01, .025, .05, .1, .5,
					},
				},
				[]string{"handling"},
			),
			errorsTotal: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "proxy",
					Name:      "errors_total",
					Help:      "Total number of dispatch errors",
				},
				[]string{"binding", "error_type"},
			),
			snapshots: factory.NewCounter(
				prometheus.CounterOpts{
					Namespace: "mfrouter",
					Subsystem: "proxy",
					Name:      "snapshots_published_total",
					Help:      "Total number of route snapshots published",
				},
			),
		}
		initProxyVecMetrics()
	})
}

// initProxyVecMetrics pre-populates label combinations so the series
// appear right after startup.
func initProxyVecMetrics() {
	m := proxyMetricsInstance
	for _, h := range []string{
		handlingHTML, handlingCSS, handlingRedirect, handlingPassthrough,
		handlingHeadersOnly, handlingOversize, handlingUndecodable, handlingPreload,
	} {
		m.responses.WithLabelValues(h)
	}
	m.rewriteDuration.WithLabelValues(handlingHTML)
	m.rewriteDuration.WithLabelValues(handlingCSS)
}

func getProxyMetrics() *proxyMetrics {
	InitMetrics(nil)
	return proxyMetricsInstance
}
