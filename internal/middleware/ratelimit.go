package middleware

import (
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// Rate limiter default configuration constants.
const (
	// DefaultClientTTL is the default TTL for client rate limiter entries.
	DefaultClientTTL = 10 * time.Minute

	// MinCleanupInterval is the minimum interval for cleanup operations.
	MinCleanupInterval = 10 * time.Second

	// MaxCleanupInterval is the maximum interval for cleanup operations.
	MaxCleanupInterval = time.Minute
)

// Rate limit scope label values.
const (
	scopeGlobal = "global"
	scopeClient = "client"
)

type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter is a token bucket limiter, shared or per client IP.
type RateLimiter struct {
	limiter   *rate.Limiter
	perClient bool
	clients   map[string]*clientEntry
	mu        sync.Mutex
	rps       int
	burst     int
	logger    observability.Logger
	metrics   *observability.Metrics
	clientTTL time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// RateLimiterOption is a functional option for configuring the rate limiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterLogger sets the logger for the rate limiter.
func WithRateLimiterLogger(logger observability.Logger) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// WithRateLimiterMetrics records rejected requests on m.
func WithRateLimiterMetrics(m *observability.Metrics) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.metrics = m
	}
}

// WithClientTTL sets how long an idle client's bucket is kept.
func WithClientTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.clientTTL = ttl
	}
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(rps, burst int, perClient bool, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		perClient: perClient,
		clients:   make(map[string]*clientEntry),
		rps:       rps,
		burst:     burst,
		logger:    observability.NopLogger(),
		clientTTL: DefaultClientTTL,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow reports whether a request from clientIP may proceed.
func (rl *RateLimiter) Allow(clientIP string) bool {
	if !rl.perClient {
		return rl.limiter.Allow()
	}

	now := time.Now()
	rl.mu.Lock()
	entry, ok := rl.clients[clientIP]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[clientIP] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

func (rl *RateLimiter) scope() string {
	if rl.perClient {
		return scopeClient
	}
	return scopeGlobal
}

// RateLimit returns a middleware that answers 429 once the limiter is
// exhausted.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			scope := rl.scope()

			if !rl.Allow(clientIP) {
				rl.logger.WithContext(r.Context()).Warn("rate limit exceeded",
					observability.String("client_ip", clientIP),
					observability.String("path", r.URL.Path),
				)
				getMiddlewareMetrics().rateLimitDecisions.WithLabelValues(scope, "rejected").Inc()
				if rl.metrics != nil {
					rl.metrics.RecordRateLimitHit(scope)
				}

				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.Header().Set(HeaderRetryAfter, "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, ErrRateLimitExceeded)
				return
			}

			getMiddlewareMetrics().rateLimitDecisions.WithLabelValues(scope, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitFromConfig builds the rate limit middleware. A disabled
// config yields a pass-through middleware and a nil limiter. The
// caller stops a non-nil limiter on shutdown.
func RateLimitFromConfig(
	cfg config.RateLimitConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
) (func(http.Handler) http.Handler, *RateLimiter) {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	rl := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, cfg.PerClient,
		WithRateLimiterLogger(logger),
		WithRateLimiterMetrics(metrics),
	)
	if cfg.PerClient {
		rl.StartAutoCleanup()
	}
	return RateLimit(rl), rl
}

// CleanupOldClients drops client buckets idle for longer than maxAge.
func (rl *RateLimiter) CleanupOldClients(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for ip, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > maxAge {
			delete(rl.clients, ip)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("cleaned up expired rate limiter entries",
			observability.Int("removed", removed),
			observability.Int("remaining", len(rl.clients)),
		)
	}
}

// ClientCount returns the number of tracked client buckets.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// StartAutoCleanup periodically drops idle client buckets until Stop.
func (rl *RateLimiter) StartAutoCleanup() {
	interval := min(max(rl.clientTTL/2, MinCleanupInterval), MaxCleanupInterval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.CleanupOldClients(rl.clientTTL)
			case <-rl.stopCh:
				return
			}
		}
	}()
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}
