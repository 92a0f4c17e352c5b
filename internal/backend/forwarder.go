package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/util"
)

var forwardTracer = otel.Tracer("mfrouter/backend")

// Forwarder sends a request to an upstream and returns its response.
type Forwarder interface {
	Forward(req *http.Request) (*http.Response, error)
}

// ForwarderFunc adapts a function to Forwarder.
type ForwarderFunc func(req *http.Request) (*http.Response, error)

// Forward calls f(req).
func (f ForwarderFunc) Forward(req *http.Request) (*http.Response, error) {
	return f(req)
}

// HTTPForwarder forwards to one upstream base URL.
type HTTPForwarder struct {
	name         string
	target       *url.URL
	transport    http.RoundTripper
	timeout      time.Duration
	preserveHost bool
	breaker      *gobreaker.CircuitBreaker
	logger       observability.Logger
}

// ForwarderOption is a functional option for HTTPForwarder.
type ForwarderOption func(*HTTPForwarder)

// WithForwarderLogger sets the logger.
func WithForwarderLogger(logger observability.Logger) ForwarderOption {
	return func(f *HTTPForwarder) {
		f.logger = logger
	}
}

// WithTransport replaces the upstream transport.
func WithTransport(rt http.RoundTripper) ForwarderOption {
	return func(f *HTTPForwarder) {
		f.transport = rt
	}
}

// NewHTTPForwarder creates a forwarder for the binding cfg.
func NewHTTPForwarder(name string, cfg config.BindingConfig, opts ...ForwarderOption) (*HTTPForwarder, error) {
	target, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, util.NewConfigErrorWithCause("bindings."+name+".url", "invalid url", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, util.NewConfigError("bindings."+name+".url", fmt.Sprintf("url %q must be absolute", cfg.URL))
	}

	f := &HTTPForwarder{
		name:         name,
		target:       target,
		timeout:      cfg.Timeout.Duration(),
		preserveHost: cfg.PreserveHost,
		logger:       observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.transport == nil {
		f.transport = newTransport(DefaultPoolConfig())
	}
	if cfg.CircuitBreaker.Enabled {
		f.breaker = newBreaker(name, cfg.CircuitBreaker, f.logger)
	}

	return f, nil
}

// Name returns the binding name.
func (f *HTTPForwarder) Name() string { return f.name }

// Target returns the upstream base URL.
func (f *HTTPForwarder) Target() *url.URL { return f.target }

// Forward rewrites req to point at the upstream and sends it. The
// request path is appended to the target's base path. On success the
// timeout stays armed until the response body is closed.
func (f *HTTPForwarder) Forward(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = f.target.Scheme
	out.URL.Host = f.target.Host
	out.URL.Path = joinPath(f.target.Path, req.URL.Path)
	out.URL.RawPath = joinPath(f.target.EscapedPath(), req.URL.EscapedPath())
	if f.target.RawQuery != "" {
		out.URL.RawQuery = joinQuery(f.target.RawQuery, req.URL.RawQuery)
	}
	if !f.preserveHost {
		out.Host = f.target.Host
	}
	out.RequestURI = ""

	ctx := out.Context()
	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	ctx, span := forwardTracer.Start(ctx, "forward "+f.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mfrouter.binding", f.name),
			attribute.String("http.request.method", out.Method),
			attribute.String("url.full", out.URL.String()),
		),
	)
	defer span.End()

	out = out.WithContext(ctx)
	observability.InjectTraceContext(ctx, out)

	start := time.Now()
	resp, err := f.roundTrip(out)
	duration := time.Since(start)

	m := getBackendMetrics()
	if err != nil {
		cancel()
		err = f.classify(ctx, err)
		m.recordError(f.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.WithContext(req.Context()).Debug("forward failed",
			observability.String("binding", f.name),
			observability.Duration("duration", duration),
			observability.Error(err),
		)
		return nil, err
	}

	m.forwardDuration.WithLabelValues(f.name, statusClass(resp.StatusCode)).Observe(duration.Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

func (f *HTTPForwarder) roundTrip(req *http.Request) (*http.Response, error) {
	if f.breaker == nil {
		return f.transport.RoundTrip(req)
	}

	result, err := f.breaker.Execute(func() (interface{}, error) {
		resp, err := f.transport.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, util.NewServerError(resp.StatusCode)
		}
		return resp, nil
	})

	var serverErr *util.ServerError
	if errors.As(err, &serverErr) {
		return result.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

func (f *HTTPForwarder) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return util.NewCircuitOpenError(f.name, f.breaker.State().String())
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return util.NewTimeoutError("forward to "+f.name, f.timeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return util.NewBindingErrorWithCause(f.name, "upstream request failed", err)
	}
}

// CloseIdleConnections releases pooled upstream connections.
func (f *HTTPForwarder) CloseIdleConnections() {
	if t, ok := f.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// cancelOnClose releases the forward timeout once the body is done.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		if p == "" {
			return "/"
		}
		return p
	}
	switch {
	case strings.HasSuffix(base, "/") && strings.HasPrefix(p, "/"):
		return base + p[1:]
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(p, "/"):
		return base + "/" + p
	default:
		return base + p
	}
}

func joinQuery(base, q string) string {
	if q == "" {
		return base
	}
	return base + "&" + q
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
