package backend

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// newBreaker builds the circuit breaker guarding one binding. It trips
// once at least threshold requests were seen in the current interval
// and half of them failed. Client cancellations do not count.
func newBreaker(name string, cfg config.CircuitBreakerConfig, logger observability.Logger) *gobreaker.CircuitBreaker {
	threshold := safeIntToUint32(cfg.Threshold)
	timeout := cfg.Timeout.Duration()

	getBackendMetrics().breakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: threshold,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < threshold {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				observability.String("binding", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			getBackendMetrics().breakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
