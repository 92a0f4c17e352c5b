package middleware

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// Logging returns a middleware that writes one access log line per
// request. The route is reported by the dispatcher through the route
// label slot.
func Logging(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := util.ContextWithStartTime(r.Context(), start)
			ctx, label := util.ContextWithRouteLabel(ctx)
			r = r.WithContext(ctx)

			rw := util.NewStatusCapturingResponseWriter(w)
			next.ServeHTTP(rw, r)

			fields := []observability.Field{
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", rw.StatusCode),
				observability.Int("size", rw.BytesWritten),
				observability.Duration("duration", time.Since(start)),
				observability.String("client_ip", getClientIP(r)),
				observability.String("user_agent", r.UserAgent()),
				observability.String("route", label.Route),
			}

			//nolint:contextcheck // request context carries the request ID
			l := logger.WithContext(r.Context())
			switch {
			case rw.StatusCode >= http.StatusInternalServerError:
				l.Warn("http request", fields...)
			default:
				l.Info("http request", fields...)
			}
		})
	}
}
