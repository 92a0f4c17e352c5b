package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordRequest(http.MethodGet, "/docs", http.StatusOK, 10*time.Millisecond, 512)
	m.RecordRequest(http.MethodGet, "/docs", http.StatusOK, 20*time.Millisecond, 512)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/docs", "200")))
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.RecordRateLimitHit("global")
	m.RecordConfigReload(true)
	m.RecordConfigReload(false)
	m.RecordConfigReload(false)
	m.SetBuildInfo("1.0.0", "abc", "now")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues("global")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.configReloads.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.configReloads.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.buildInfo.WithLabelValues("1.0.0", "abc", "now")))
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		route     string
		wantLabel string
	}{
		{name: "matched route", route: "/app/:id", wantLabel: "/app/:id"},
		{name: "unmatched", route: "", wantLabel: unmatchedRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMetrics("test")
			handler := MetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.route != "" {
					util.SetRouteLabel(r.Context(), tt.route)
				}
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte("ok"))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app/1", nil))

			assert.Equal(t, http.StatusAccepted, rec.Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(
				m.requestsTotal.WithLabelValues(http.MethodPost, tt.wantLabel, "202")))
			assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRequests))
		})
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordRateLimitHit("global")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_rate_limit_hits_total"))
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestMetrics_Gather(t *testing.T) {
	t.Parallel()

	m := NewMetrics("gather")
	m.RecordRequest(http.MethodGet, "/docs", http.StatusOK, 30*time.Millisecond, 2048)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	duration := findFamily(families, "gather_request_duration_seconds")
	require.NotNil(t, duration)
	assert.Equal(t, dto.MetricType_HISTOGRAM, duration.GetType())
	require.Len(t, duration.GetMetric(), 1)
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())

	start := findFamily(families, "gather_start_time_seconds")
	require.NotNil(t, start)
	assert.Positive(t, start.GetMetric()[0].GetGauge().GetValue())

	assert.NotNil(t, findFamily(families, "go_goroutines"))
}
