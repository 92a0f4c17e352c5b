package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/preload"
	"github.com/vyrodovalexey/mfrouter/internal/rewrite"
)

type bodyKind int

const (
	bodyOther bodyKind = iota
	bodyHTML
	bodyCSS
)

func classifyContentType(ct string) bodyKind {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "text/html"):
		return bodyHTML
	case strings.Contains(ct, "text/css"):
		return bodyCSS
	default:
		return bodyOther
	}
}

// modifyResponse adapts a backend response to the mount.
func (ex *exchange) modifyResponse(resp *http.Response) error {
	m := getProxyMetrics()
	h := resp.Header

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := h.Get("Location"); loc != "" {
			h.Set("Location", rewrite.RewriteLocation(loc, ex.mount, ex.origin))
		}
		rewrite.RewriteSetCookies(h, ex.mount)
		dropBody(resp)
		m.responses.WithLabelValues(handlingRedirect).Inc()
		return nil
	}

	if ex.serveScript {
		preload.ReplaceWithScript(resp, ex.preloadMounts)
		m.responses.WithLabelValues(handlingPreload).Inc()
		return nil
	}

	rewrite.RewriteSetCookies(h, ex.mount)

	if ex.method == http.MethodHead ||
		resp.StatusCode == http.StatusNoContent ||
		resp.StatusCode == http.StatusNotModified {
		m.responses.WithLabelValues(handlingHeadersOnly).Inc()
		return nil
	}

	kind := classifyContentType(h.Get("Content-Type"))
	if kind == bodyOther {
		m.responses.WithLabelValues(handlingPassthrough).Inc()
		return nil
	}

	encoding := h.Get("Content-Encoding")
	if !rewrite.CanDecode(encoding) {
		ex.logger.Debug("passing through body with unsupported encoding",
			observability.String("content_encoding", encoding),
		)
		m.responses.WithLabelValues(handlingUndecodable).Inc()
		return nil
	}

	limit := ex.snapshot.MaxRewriteBodySize
	if limit > 0 && resp.ContentLength > limit && encoding == "" {
		m.responses.WithLabelValues(handlingOversize).Inc()
		return nil
	}

	return ex.rewriteBody(resp, kind, encoding, limit)
}

// rewriteBody buffers the decoded body and replaces it with the
// rewritten document. A body that decodes to more than limit bytes is
// streamed on decoded but unchanged.
func (ex *exchange) rewriteBody(resp *http.Response, kind bodyKind, encoding string, limit int64) error {
	start := time.Now()
	m := getProxyMetrics()

	decoded, err := rewrite.DecodeBody(resp.Body, encoding)
	if err != nil {
		return NewProxyError("decode_body", ex.route.Expr, ex.route.Binding, "cannot decode "+encoding, fmt.Errorf("%w: %w", ErrDecodeBody, err))
	}
	original := resp.Body

	var src io.Reader = decoded
	if limit > 0 {
		src = io.LimitReader(decoded, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		_ = decoded.Close()
		return NewProxyError("read_body", ex.route.Expr, ex.route.Binding, "cannot read body", fmt.Errorf("%w: %w", ErrDecodeBody, err))
	}

	if limit > 0 && int64(len(data)) > limit {
		resp.Body = &chainedBody{
			Reader:  io.MultiReader(bytes.NewReader(data), decoded),
			closers: []io.Closer{decoded, original},
		}
		resp.ContentLength = -1
		rewrite.SanitizeHeaders(resp.Header)
		m.responses.WithLabelValues(handlingOversize).Inc()
		return nil
	}
	_ = decoded.Close()
	_ = original.Close()

	var out []byte
	label := handlingCSS
	switch kind {
	case bodyHTML:
		label = handlingHTML
		out, err = ex.rewriteHTML(data)
		if err != nil {
			return NewProxyError("rewrite_html", ex.route.Expr, ex.route.Binding, "cannot rewrite document", fmt.Errorf("%w: %w", ErrRewriteBody, err))
		}
	case bodyCSS:
		out = []byte(rewrite.RewriteCSS(string(data), ex.mount, ex.snapshot.Assets))
	}

	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	rewrite.SanitizeHeaders(resp.Header)
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))

	m.responses.WithLabelValues(label).Inc()
	m.rewriteDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	return nil
}

func (ex *exchange) rewriteHTML(data []byte) ([]byte, error) {
	inj := preload.Plan(preload.Options{
		Mount:             ex.mount,
		UserAgent:         ex.userAgent,
		Mounts:            ex.preloadMounts,
		SmoothTransitions: ex.snapshot.Table.SmoothTransitions(),
	})

	var buf bytes.Buffer
	buf.Grow(len(data) + len(inj.Head) + len(inj.Body))
	_, err := rewrite.RewriteHTML(&buf, bytes.NewReader(data), rewrite.HTMLOptions{
		Mount:         ex.mount,
		Assets:        ex.snapshot.Assets,
		HeadInjection: inj.Head,
		BodyInjection: inj.Body,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dropBody discards the body of a 3xx response. Validators are kept
// so that 304 responses stay meaningful.
func dropBody(resp *http.Response) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	resp.Body = http.NoBody
	resp.ContentLength = 0
	if resp.StatusCode != http.StatusNotModified {
		resp.Header.Del("Content-Length")
		resp.Header.Del("Content-Encoding")
	}
}

type chainedBody struct {
	io.Reader
	closers []io.Closer
}

func (c *chainedBody) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
