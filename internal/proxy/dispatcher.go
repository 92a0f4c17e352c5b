package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/mfrouter/internal/backend"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/preload"
	"github.com/vyrodovalexey/mfrouter/internal/rewrite"
	"github.com/vyrodovalexey/mfrouter/internal/router"
	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// Dispatcher routes requests to backends and adapts their responses to
// the mount they are served under.
type Dispatcher struct {
	snapshot      atomic.Pointer[Snapshot]
	logger        observability.Logger
	flushInterval time.Duration
}

// DispatcherOption is a functional option for configuring the dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger for the dispatcher.
func WithDispatcherLogger(logger observability.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithFlushInterval sets the flush interval for streamed responses.
func WithFlushInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.flushInterval = interval
	}
}

// NewDispatcher creates a dispatcher without routes. Requests are
// answered with 503 until a snapshot is published.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		logger:        observability.NopLogger(),
		flushInterval: -1, // Immediate flush
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish makes s the snapshot for every request that starts after the
// call returns.
func (d *Dispatcher) Publish(s *Snapshot) {
	d.snapshot.Store(s)
	getProxyMetrics().snapshots.Inc()
	if s != nil && s.Table != nil {
		router.RecordTableSize(s.Table)
	}
}

// Snapshot returns the active snapshot, or nil.
func (d *Dispatcher) Snapshot() *Snapshot {
	return d.snapshot.Load()
}

// Ready reports whether a snapshot with routes is published.
func (d *Dispatcher) Ready() bool {
	s := d.snapshot.Load()
	return s != nil && s.Table != nil && s.Table.Len() > 0
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := d.snapshot.Load()
	if snap == nil || snap.Table == nil {
		d.logger.WithContext(r.Context()).Warn("request received before routes were loaded",
			observability.String("path", r.URL.Path),
		)
		getProxyMetrics().errorsTotal.WithLabelValues("", errNotConfigured.kind).Inc()
		errNotConfigured.write(w)
		return
	}

	// Routing works on the path as sent so that encoded slashes never
	// cross a mount boundary.
	escaped := r.URL.EscapedPath()
	result, ok := snap.Table.Match(escaped)
	if !ok {
		d.logger.WithContext(r.Context()).Debug("route not found",
			observability.String("path", r.URL.Path),
			observability.String("method", r.Method),
		)
		writeNotFound(w)
		return
	}

	route := result.Route
	ctx := r.Context()
	util.SetRouteLabel(ctx, route.Expr)
	ctx = util.ContextWithRoute(ctx, route.Expr)
	ctx = util.ContextWithMount(ctx, result.Mount)
	ctx = util.ContextWithBinding(ctx, route.Binding)
	r = r.WithContext(ctx)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("mfrouter.route", route.Expr),
		attribute.String("mfrouter.mount", result.Mount),
		attribute.String("mfrouter.binding", route.Binding),
		attribute.Bool("mfrouter.fallback", result.Fallback),
	)

	rawForward := util.StripMount(escaped, result.Mount)
	forwardPath, err := url.PathUnescape(rawForward)
	if err != nil {
		forwardPath = rawForward
	}
	preloadMounts := snap.Table.PreloadMounts(result.Mount)

	ex := &exchange{
		dispatcher:    d,
		snapshot:      snap,
		route:         route,
		mount:         result.Mount,
		origin:        rewrite.RequestOrigin(r),
		method:        r.Method,
		userAgent:     r.UserAgent(),
		preloadMounts: preloadMounts,
		serveScript:   len(preloadMounts) > 0 && rawForward == preload.ScriptForwardPath,
		logger:        d.logger.WithContext(ctx),
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = forwardPath
			pr.Out.URL.RawPath = rawForward
			pr.SetXForwarded()
		},
		Transport:      forwarderTransport{forwarder: route.Forwarder},
		FlushInterval:  d.flushInterval,
		ModifyResponse: ex.modifyResponse,
		ErrorHandler:   ex.handleError,
	}
	rp.ServeHTTP(w, r)
}

// forwarderTransport adapts a binding to http.RoundTripper.
type forwarderTransport struct {
	forwarder backend.Forwarder
}

func (t forwarderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.forwarder.Forward(req)
}

// exchange carries the per-request state the response hooks need.
type exchange struct {
	dispatcher    *Dispatcher
	snapshot      *Snapshot
	route         *router.CompiledRoute
	mount         string
	origin        *url.URL
	method        string
	userAgent     string
	preloadMounts []string
	// serveScript marks a request for the reserved preload script path.
	serveScript bool
	logger      observability.Logger
}

func (ex *exchange) handleError(w http.ResponseWriter, r *http.Request, err error) {
	resp := classifyError(err)
	getProxyMetrics().errorsTotal.WithLabelValues(ex.route.Binding, resp.kind).Inc()

	fields := []observability.Field{
		observability.String("route", ex.route.Expr),
		observability.String("binding", ex.route.Binding),
		observability.String("mount", ex.mount),
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.Error(err),
	}
	if resp.kind == errClientCanceled.kind {
		ex.logger.Debug("client canceled request", fields...)
	} else {
		ex.logger.Error("proxy error", fields...)
	}
	resp.write(w)
}
