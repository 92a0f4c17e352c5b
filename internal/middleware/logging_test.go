package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/util"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    string
		status    int
		route     string
		wantLevel zapcore.Level
	}{
		{name: "matched route", target: "/app1/page?x=1", status: http.StatusOK, route: "/app1", wantLevel: zapcore.InfoLevel},
		{name: "not found", target: "/nowhere", status: http.StatusNotFound, wantLevel: zapcore.InfoLevel},
		{name: "gateway error", target: "/app2", status: http.StatusBadGateway, route: "/app2", wantLevel: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.DebugLevel)
			logger := observability.NewLoggerFromZap(zap.New(core))

			handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.False(t, util.StartTimeFromContext(r.Context()).IsZero())
				if tt.route != "" {
					util.SetRouteLabel(r.Context(), tt.route)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			entries := logs.FilterMessage("http request").All()
			require.Len(t, entries, 1)
			entry := entries[0]
			fields := entry.ContextMap()

			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(4), fields["size"])
			assert.Equal(t, tt.route, fields["route"])
			assert.Equal(t, "192.0.2.1", fields["client_ip"])
		})
	}
}
