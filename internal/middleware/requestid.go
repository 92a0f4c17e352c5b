package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = HeaderXRequestID

	maxRequestIDLength = 128
)

// RequestID returns a middleware that adds a request ID to each request.
// An inbound ID is kept when it is short printable ASCII.
func RequestID() func(http.Handler) http.Handler {
	return RequestIDWithGenerator(func() string { return uuid.New().String() })
}

// RequestIDWithGenerator returns a middleware that uses a custom ID generator.
func RequestIDWithGenerator(generator func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if !validRequestID(requestID) {
				requestID = generator()
				r.Header.Set(RequestIDHeader, requestID)
			}

			ctx := util.ContextWithRequestID(r.Context(), requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
