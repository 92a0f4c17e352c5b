package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/app1", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_Global(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("rltest")
	rl := NewRateLimiter(1, 2, false, WithRateLimiterMetrics(metrics))
	h := RateLimit(rl)(okHandler())

	assert.Equal(t, http.StatusOK, serveFrom(h, "192.0.2.1:1").Code)
	assert.Equal(t, http.StatusOK, serveFrom(h, "192.0.2.2:1").Code)

	rec := serveFrom(h, "192.0.2.3:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(HeaderRetryAfter))
	assert.JSONEq(t, ErrRateLimitExceeded, rec.Body.String())

	count, err := testutil.GatherAndCount(metrics.Registry(), "rltest_rate_limit_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRateLimit_PerClient(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, true)
	h := RateLimit(rl)(okHandler())

	assert.Equal(t, http.StatusOK, serveFrom(h, "192.0.2.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "192.0.2.1:2").Code)
	assert.Equal(t, http.StatusOK, serveFrom(h, "192.0.2.2:1").Code)
	assert.Equal(t, 2, rl.ClientCount())
}

func TestRateLimiter_CleanupOldClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(10, 10, true)
	rl.Allow("192.0.2.1")
	rl.Allow("192.0.2.2")
	require.Equal(t, 2, rl.ClientCount())

	rl.CleanupOldClients(time.Hour)
	assert.Equal(t, 2, rl.ClientCount())

	rl.CleanupOldClients(-time.Second)
	assert.Zero(t, rl.ClientCount())
}

func TestRateLimitFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("disabled passes through", func(t *testing.T) {
		t.Parallel()

		mw, rl := RateLimitFromConfig(config.RateLimitConfig{}, observability.NopLogger(), nil)
		assert.Nil(t, rl)
		assert.Equal(t, http.StatusOK, serveFrom(mw(okHandler()), "192.0.2.1:1").Code)
	})

	t.Run("enabled per client", func(t *testing.T) {
		t.Parallel()

		mw, rl := RateLimitFromConfig(config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 1,
			Burst:             1,
			PerClient:         true,
		}, observability.NopLogger(), nil)
		require.NotNil(t, rl)
		t.Cleanup(rl.Stop)

		h := mw(okHandler())
		assert.Equal(t, http.StatusOK, serveFrom(h, "192.0.2.1:1").Code)
		assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "192.0.2.1:1").Code)

		rl.Stop()
		rl.Stop()
	})
}
