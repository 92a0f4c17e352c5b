// Package util provides utility functions and types for the router.
//
// # Error Conventions
//
// Errors across the module follow one pattern:
//
//   - Sentinel errors (errors.New) for stable conditions checked with
//     errors.Is. Example: ErrNotFound.
//   - Structured error types for errors that carry fields (ConfigError,
//     BindingError). Each implements Error(), Unwrap() when wrapping,
//     and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping.
package util

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTimeout        = errors.New("timeout")
	ErrCircuitOpen    = errors.New("circuit breaker open")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrBackendUnavail = errors.New("backend unavailable")
	ErrConfigInvalid  = errors.New("invalid configuration")
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, msg)
	}
	return fmt.Sprintf("config error: %s", msg)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ConfigError or ErrConfigInvalid.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// RouteNotFoundError is returned when no route matches a path.
type RouteNotFoundError struct {
	Path   string
	Method string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route found for %s %s", e.Method, e.Path)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(method, path string) *RouteNotFoundError {
	return &RouteNotFoundError{Path: path, Method: method}
}

// BindingError represents a failure talking to a backend binding.
type BindingError struct {
	Binding string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("binding %s error: %s: %v", e.Binding, e.Message, e.Cause)
	}
	return fmt.Sprintf("binding %s error: %s", e.Binding, e.Message)
}

// Unwrap returns the underlying error.
func (e *BindingError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *BindingError) Is(target error) bool {
	if target == ErrBackendUnavail {
		return true
	}
	_, ok := target.(*BindingError)
	return ok || errors.Is(e.Cause, target)
}

// NewBindingError creates a new BindingError.
func NewBindingError(binding, message string) *BindingError {
	return &BindingError{Binding: binding, Message: message}
}

// NewBindingErrorWithCause creates a new BindingError with a cause.
func NewBindingErrorWithCause(binding, message string, cause error) *BindingError {
	return &BindingError{Binding: binding, Message: message, Cause: cause}
}

// TimeoutError represents an upstream timeout.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	Cause     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v during %s", e.Duration, e.Operation)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimeout {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok || errors.Is(e.Cause, target)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration, cause error) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, Cause: cause}
}

// CircuitOpenError is returned while a binding's circuit breaker rejects calls.
type CircuitOpenError struct {
	Name  string
	State string
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is %s", e.Name, e.State)
}

// Is checks if the error matches the target.
func (e *CircuitOpenError) Is(target error) bool {
	if target == ErrCircuitOpen {
		return true
	}
	_, ok := target.(*CircuitOpenError)
	return ok
}

// NewCircuitOpenError creates a new CircuitOpenError.
func NewCircuitOpenError(name, state string) *CircuitOpenError {
	return &CircuitOpenError{Name: name, State: state}
}

// ServerError signals that an upstream answered with a 5xx status.
// Circuit breakers count it as a failure.
type ServerError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.StatusCode)
}

// NewServerError creates a new ServerError with the given status code.
func NewServerError(statusCode int) *ServerError {
	return &ServerError{StatusCode: statusCode}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
