package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		inbound    string
		expectKept bool
	}{
		{name: "generates new request ID", inbound: "", expectKept: false},
		{name: "uses existing request ID", inbound: "existing-request-id-123", expectKept: true},
		{name: "replaces ID with spaces", inbound: "bad id", expectKept: false},
		{name: "replaces oversized ID", inbound: strings.Repeat("a", 129), expectKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fromContext, forwarded string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromContext = util.RequestIDFromContext(r.Context())
				forwarded = r.Header.Get(HeaderXRequestID)
			}))

			req := httptest.NewRequest(http.MethodGet, "/app", nil)
			if tt.inbound != "" {
				req.Header.Set(HeaderXRequestID, tt.inbound)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderXRequestID)
			require.NotEmpty(t, got)
			assert.Equal(t, got, fromContext)
			assert.Equal(t, got, forwarded)
			if tt.expectKept {
				assert.Equal(t, tt.inbound, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestIDWithGenerator(t *testing.T) {
	t.Parallel()

	handler := RequestIDWithGenerator(func() string { return "fixed" })(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
	)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "fixed", rec.Header().Get(HeaderXRequestID))
}
