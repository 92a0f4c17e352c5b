package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyTraceID   ctxKey = "trace_id"
	ctxKeySpanID    ctxKey = "span_id"
	ctxKeyStartTime ctxKey = "start_time"
	ctxKeyRoute     ctxKey = "route"
	ctxKeyBinding   ctxKey = "binding"
	ctxKeyMount     ctxKey = "mount"
	ctxKeyLabel     ctxKey = "route_label"
)

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// ContextWithTraceID adds a trace ID to the context.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, traceID)
}

// TraceIDFromContext extracts the trace ID from context.
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTraceID).(string); ok {
		return v
	}
	return ""
}

// ContextWithSpanID adds a span ID to the context.
func ContextWithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, ctxKeySpanID, spanID)
}

// SpanIDFromContext extracts the span ID from context.
func SpanIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySpanID).(string); ok {
		return v
	}
	return ""
}

// ContextWithStartTime records when request handling began.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ElapsedTime returns the time since the start time stored in ctx,
// or zero when none was stored.
func ElapsedTime(ctx context.Context) time.Duration {
	start := StartTimeFromContext(ctx)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// ContextWithRoute adds the matched route expression to the context.
func ContextWithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, ctxKeyRoute, route)
}

// RouteFromContext extracts the matched route expression from context.
func RouteFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRoute).(string); ok {
		return v
	}
	return ""
}

// ContextWithBinding adds the backend binding name to the context.
func ContextWithBinding(ctx context.Context, binding string) context.Context {
	return context.WithValue(ctx, ctxKeyBinding, binding)
}

// BindingFromContext extracts the backend binding name from context.
func BindingFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyBinding).(string); ok {
		return v
	}
	return ""
}

// ContextWithMount adds the concrete matched mount to the context.
func ContextWithMount(ctx context.Context, mount string) context.Context {
	return context.WithValue(ctx, ctxKeyMount, mount)
}

// MountFromContext extracts the matched mount from context.
func MountFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyMount).(string); ok {
		return v
	}
	return ""
}

// RouteLabel is a slot placed in the context by outer middleware so
// the dispatcher can report the matched route back up the chain.
type RouteLabel struct {
	Route string
}

// ContextWithRouteLabel attaches an empty RouteLabel to ctx. A label
// already carried by ctx is reused so every middleware sees the same
// slot.
func ContextWithRouteLabel(ctx context.Context) (context.Context, *RouteLabel) {
	if label, ok := ctx.Value(ctxKeyLabel).(*RouteLabel); ok {
		return ctx, label
	}
	label := &RouteLabel{}
	return context.WithValue(ctx, ctxKeyLabel, label), label
}

// SetRouteLabel records route in the RouteLabel carried by ctx, if any.
func SetRouteLabel(ctx context.Context, route string) {
	if label, ok := ctx.Value(ctxKeyLabel).(*RouteLabel); ok {
		label.Route = route
	}
}
