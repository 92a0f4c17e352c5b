package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// Sentinel errors for proxy operations.
var (
	// ErrNotConfigured indicates that no snapshot has been published.
	ErrNotConfigured = errors.New("router not configured")

	// ErrRouteNotFound indicates that no route matched the request path.
	ErrRouteNotFound = errors.New("no matching route found")

	// ErrDecodeBody indicates that a response body could not be decoded.
	ErrDecodeBody = errors.New("failed to decode response body")

	// ErrRewriteBody indicates that a response body could not be rewritten.
	ErrRewriteBody = errors.New("failed to rewrite response body")
)

// ProxyError represents a dispatch failure with details.
type ProxyError struct {
	Op      string // Operation that failed
	Route   string // Route expression if applicable
	Binding string // Binding name if applicable
	Message string // Human-readable message
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	if e.Route != "" && e.Binding != "" {
		return e.formatWithRouteAndBinding()
	}
	if e.Route != "" {
		return e.formatWithRoute()
	}
	return e.formatBasic()
}

func (e *ProxyError) formatWithRouteAndBinding() string {
	if e.Cause != nil {
		return fmt.Sprintf("proxy error [%s] route=%s binding=%s: %s: %v",
			e.Op, e.Route, e.Binding, e.Message, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s] route=%s binding=%s: %s",
		e.Op, e.Route, e.Binding, e.Message)
}

func (e *ProxyError) formatWithRoute() string {
	if e.Cause != nil {
		return fmt.Sprintf("proxy error [%s] route=%s: %s: %v",
			e.Op, e.Route, e.Message, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s] route=%s: %s", e.Op, e.Route, e.Message)
}

func (e *ProxyError) formatBasic() string {
	if e.Cause != nil {
		return fmt.Sprintf("proxy error [%s]: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s]: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ProxyError) Is(target error) bool {
	_, ok := target.(*ProxyError)
	return ok || errors.Is(e.Cause, target)
}

// NewProxyError creates a new ProxyError.
func NewProxyError(op, route, binding, message string, cause error) *ProxyError {
	return &ProxyError{
		Op:      op,
		Route:   route,
		Binding: binding,
		Message: message,
		Cause:   cause,
	}
}

// IsProxyError checks if an error is a ProxyError.
func IsProxyError(err error) bool {
	var proxyErr *ProxyError
	return errors.As(err, &proxyErr)
}

// errorResponse is a canned JSON error body.
type errorResponse struct {
	status int
	body   string
	kind   string
}

var (
	errBadGateway = errorResponse{
		status: http.StatusBadGateway,
		body:   `{"error":"bad gateway","message":"failed to proxy request"}`,
		kind:   "bad_gateway",
	}
	errCircuitOpen = errorResponse{
		status: http.StatusServiceUnavailable,
		body:   `{"error":"service unavailable","message":"circuit breaker open"}`,
		kind:   "circuit_open",
	}
	errNotConfigured = errorResponse{
		status: http.StatusServiceUnavailable,
		body:   `{"error":"service unavailable","message":"no routes loaded"}`,
		kind:   "not_configured",
	}
	errGatewayTimeout = errorResponse{
		status: http.StatusGatewayTimeout,
		body:   `{"error":"gateway timeout","message":"upstream request timed out"}`,
		kind:   "timeout",
	}
	errClientCanceled = errorResponse{
		status: http.StatusBadGateway,
		body:   `{"error":"bad gateway","message":"request canceled"}`,
		kind:   "canceled",
	}
)

// classifyError maps a forwarding failure to the response the client
// receives.
func classifyError(err error) errorResponse {
	switch {
	case errors.Is(err, util.ErrCircuitOpen):
		return errCircuitOpen
	case errors.Is(err, util.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return errGatewayTimeout
	case errors.Is(err, context.Canceled):
		return errClientCanceled
	case errors.Is(err, ErrNotConfigured):
		return errNotConfigured
	default:
		return errBadGateway
	}
}

func (e errorResponse) write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(e.status)
	_, _ = io.WriteString(w, e.body)
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "Not found")
}
