package proxy

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mfrouter/internal/backend"
	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
	"github.com/vyrodovalexey/mfrouter/internal/rewrite"
	"github.com/vyrodovalexey/mfrouter/internal/router"
	"github.com/vyrodovalexey/mfrouter/internal/util"
)

const (
	chromeUA  = "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0"
)

const app1Page = `<html><head><link rel="icon" href="/favicon.ico"></head>` +
	`<body><img src="/assets/logo.png"><a href="/about">About</a></body></html>`

// upstream is a fake microfrontend that records the paths it receives.
type upstream struct {
	*httptest.Server
	lastPath  atomic.Value
	lastURI   atomic.Value
	lastQuery atomic.Value
	hits      atomic.Int32
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastPath.Store(r.URL.Path)
		u.lastURI.Store(r.RequestURI)
		u.lastQuery.Store(r.URL.RawQuery)
		handler(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) path() string {
	p, _ := u.lastPath.Load().(string)
	return p
}

func (u *upstream) requestURI() string {
	p, _ := u.lastURI.Load().(string)
	return p
}

func app1Handler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/slow":
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	case "/data.json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Set-Cookie", "pref=1; Path=/")
		_, _ = io.WriteString(w, `{"src":"/assets/x.png"}`)
	case "/__mf-preload.js":
		http.NotFound(w, r)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		_, _ = io.WriteString(w, app1Page)
	}
}

func app2Handler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/redirect":
		w.Header().Add("Set-Cookie", "sid=abc; Path=/; HttpOnly")
		http.Redirect(w, r, "/redirected", http.StatusFound)
	case "/not-modified":
		w.Header().Set("ETag", `"v2"`)
		w.WriteHeader(http.StatusNotModified)
	case "/style.css":
		w.Header().Set("Content-Type", "text/css")
		_, _ = io.WriteString(w, `body{background:url("/assets/bg.png")}`)
	case "/gzip":
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, `<html><head></head><body><script src="/static/app.js"></script></body></html>`)
		_ = gz.Close()
	case "/unknown-encoding":
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "compress")
		_, _ = io.WriteString(w, "opaque")
	default:
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><title>app2</title></head><body><img src="/assets/a.png"></body></html>`)
	}
}

type fixture struct {
	dispatcher *Dispatcher
	app1       *upstream
	app2       *upstream
}

func newFixture(t *testing.T, mutate func(cfg *config.Config)) *fixture {
	t.Helper()

	f := &fixture{
		app1: newUpstream(t, app1Handler),
		app2: newUpstream(t, app2Handler),
	}

	cfg := config.DefaultConfig()
	cfg.Routes = []config.RouteConfig{
		{Binding: "app1", Path: "/app1", Preload: true},
		{Binding: "app2", Path: "/app2"},
	}
	cfg.Bindings = map[string]config.BindingConfig{
		"app1": {URL: f.app1.URL},
		"app2": {URL: f.app2.URL},
	}
	if mutate != nil {
		mutate(cfg)
	}

	registry := backend.NewRegistry(observability.NopLogger())
	require.NoError(t, registry.LoadFromConfig(cfg.Bindings))
	t.Cleanup(registry.Close)

	snap, err := SnapshotFromConfig(cfg, registry)
	require.NoError(t, err)

	f.dispatcher = NewDispatcher()
	f.dispatcher.Publish(snap)
	return f
}

func (f *fixture) do(t *testing.T, method, target string, header http.Header) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "http://example.com"+target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)
	return rec.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestDispatcher_RoutesAndStripsMount(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	tests := []struct {
		name     string
		target   string
		backend  *upstream
		wantPath string
	}{
		{name: "mount root", target: "/app1", backend: f.app1, wantPath: "/"},
		{name: "mount root with slash", target: "/app1/", backend: f.app1, wantPath: "/"},
		{name: "nested path", target: "/app1/deep/page", backend: f.app1, wantPath: "/deep/page"},
		{name: "second app", target: "/app2/about", backend: f.app2, wantPath: "/about"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, tt.target, nil)
			_ = readBody(t, resp)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantPath, tt.backend.path())
		})
	}
}

func TestDispatcher_EncodedSlashes(t *testing.T) {
	t.Parallel()

	root := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Routes = append(cfg.Routes, config.RouteConfig{Binding: "root", Path: "/"})
		cfg.Bindings["root"] = config.BindingConfig{URL: root.URL}
	})

	tests := []struct {
		name    string
		target  string
		backend *upstream
		wantURI string
	}{
		{name: "encoded slash kept below mount", target: "/app1/files/a%2Fb", backend: f.app1, wantURI: "/files/a%2Fb"},
		{name: "encoded slash is not a mount boundary", target: "/app1%2Fx", backend: root, wantURI: "/app1%2Fx"},
		{name: "encoded space", target: "/app2/a%20b?q=1", backend: f.app2, wantURI: "/a%20b?q=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, tt.target, nil)
			_ = readBody(t, resp)
			assert.Equal(t, tt.wantURI, tt.backend.requestURI())
		})
	}
}

func TestDispatcher_ForwardsQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app1/search?q=go&page=2", nil)
	_ = readBody(t, resp)

	assert.Equal(t, "/search", f.app1.path())
	q, _ := f.app1.lastQuery.Load().(string)
	assert.Equal(t, "q=go&page=2", q)
}

func TestDispatcher_RewritesHTML(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app1/", nil)
	body := readBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/app1/favicon.ico"`)
	assert.Contains(t, body, `src="/app1/assets/logo.png"`)
	assert.Contains(t, body, `href="/about"`)
	assert.Empty(t, resp.Header.Get("ETag"))
	assert.Equal(t, int64(len(body)), resp.ContentLength)
}

func TestDispatcher_PreloadHints(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	t.Run("chromium gets speculation rules", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/app2/", http.Header{"User-Agent": {chromeUA}})
		body := readBody(t, resp)
		assert.Contains(t, body, `<script type="speculationrules">{"prefetch":[{"urls":["/app1"]}]}</script></head>`)
		assert.NotContains(t, body, "__mf-preload.js")
	})

	t.Run("other browsers get the fallback script", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/app2/", http.Header{"User-Agent": {firefoxUA}})
		body := readBody(t, resp)
		assert.Contains(t, body, `<script src="/app2/__mf-preload.js" defer></script></body>`)
		assert.NotContains(t, body, "speculationrules")
	})

	t.Run("current mount is never preloaded", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/app1/", http.Header{"User-Agent": {chromeUA}})
		body := readBody(t, resp)
		assert.NotContains(t, body, "speculationrules")
	})
}

func TestDispatcher_SmoothTransitions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(cfg *config.Config) { cfg.SmoothTransitions = true })
	resp := f.do(t, http.MethodGet, "/app1/", nil)
	body := readBody(t, resp)

	assert.Contains(t, body, "<style>@supports (view-transition-name: none)")
	assert.Equal(t, 1, strings.Count(body, "<style>"))
}

func TestDispatcher_PreloadScript(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app2/__mf-preload.js", nil)
	body := readBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))
	assert.Contains(t, body, `"/app1"`)
	assert.Empty(t, resp.Header.Get("ETag"))
	assert.Equal(t, "/__mf-preload.js", f.app2.path())
}

func TestDispatcher_PreloadScriptPathRedirectWins(t *testing.T) {
	t.Parallel()

	moved := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "sid=abc; Path=/")
		http.Redirect(w, r, "/assets/preload.js", http.StatusMovedPermanently)
	})
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Routes = append(cfg.Routes, config.RouteConfig{Binding: "moved", Path: "/moved"})
		cfg.Bindings["moved"] = config.BindingConfig{URL: moved.URL}
	})

	resp := f.do(t, http.MethodGet, "/moved/__mf-preload.js", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/moved/assets/preload.js", resp.Header.Get("Location"))
	assert.Equal(t, []string{"sid=abc; Path=/moved/"}, resp.Header.Values("Set-Cookie"))
	assert.Empty(t, body)
	assert.Equal(t, int32(1), moved.hits.Load())
}

func TestDispatcher_PreloadScriptHead(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodHead, "/app2/__mf-preload.js", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Empty(t, body)
}

func TestDispatcher_PreloadScriptWithoutMountsIsForwarded(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app1/__mf-preload.js", nil)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "/__mf-preload.js", f.app1.path())
}

func TestDispatcher_Redirect(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app2/redirect", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/app2/redirected", resp.Header.Get("Location"))
	assert.Equal(t, []string{"sid=abc; Path=/app2/; HttpOnly"}, resp.Header.Values("Set-Cookie"))
	assert.Empty(t, body)
}

func TestDispatcher_NotModifiedKeepsValidators(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app2/not-modified", nil)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Equal(t, `"v2"`, resp.Header.Get("ETag"))
}

func TestDispatcher_RewritesCSS(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app2/style.css", nil)
	body := readBody(t, resp)

	assert.Equal(t, `body{background:url("/app2/assets/bg.png")}`, body)
}

func TestDispatcher_DecodesCompressedHTML(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app2/gzip", nil)
	body := readBody(t, resp)

	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Contains(t, body, `<script src="/app2/static/app.js"></script>`)
}

func TestDispatcher_UnknownEncodingPassesThrough(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app2/unknown-encoding", nil)
	body := readBody(t, resp)

	assert.Equal(t, "compress", resp.Header.Get("Content-Encoding"))
	assert.Equal(t, "opaque", body)
}

func TestDispatcher_PassthroughRewritesCookiesOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/app1/data.json", nil)
	body := readBody(t, resp)

	assert.Equal(t, `{"src":"/assets/x.png"}`, body)
	assert.Equal(t, "pref=1; Path=/app1/", resp.Header.Get("Set-Cookie"))
}

func TestDispatcher_HeadRequestHeadersOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodHead, "/app1/", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, `"v1"`, resp.Header.Get("ETag"))
}

func TestDispatcher_OversizeBodyUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(cfg *config.Config) { cfg.MaxRewriteBodySize = 16 })
	resp := f.do(t, http.MethodGet, "/app1/", nil)
	body := readBody(t, resp)

	assert.Equal(t, app1Page, body)
}

func TestDispatcher_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/elsewhere", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestDispatcher_RootFallback(t *testing.T) {
	t.Parallel()

	root := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<img src="/assets/a.png">`)
	})
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Routes = append(cfg.Routes, config.RouteConfig{Binding: "root", Path: "/"})
		cfg.Bindings["root"] = config.BindingConfig{URL: root.URL}
	})

	resp := f.do(t, http.MethodGet, "/product/workers", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/product/workers", root.path())
	assert.Equal(t, `<img src="/assets/a.png">`, body)
}

func TestDispatcher_NoSnapshot(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"service unavailable","message":"no routes loaded"}`, rec.Body.String())
	assert.False(t, d.Ready())
}

func TestDispatcher_UpstreamDown(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	f := newFixture(t, func(cfg *config.Config) {
		cfg.Bindings["app1"] = config.BindingConfig{URL: deadURL}
	})
	resp := f.do(t, http.MethodGet, "/app1/", nil)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"bad gateway","message":"failed to proxy request"}`, body)
}

func TestDispatcher_UpstreamTimeout(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(cfg *config.Config) {
		b := cfg.Bindings["app1"]
		b.Timeout = config.Duration(20 * time.Millisecond)
		cfg.Bindings["app1"] = b
	})
	resp := f.do(t, http.MethodGet, "/app1/slow", nil)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestDispatcher_CircuitOpen(t *testing.T) {
	t.Parallel()

	resolver := stubResolver{
		"app": backend.ForwarderFunc(func(*http.Request) (*http.Response, error) {
			return nil, util.NewCircuitOpenError("app", "open")
		}),
	}
	table, err := router.Build(config.RoutesConfig{
		Routes: []config.RouteConfig{{Binding: "app", Path: "/app"}},
	}, resolver)
	require.NoError(t, err)

	d := NewDispatcher()
	d.Publish(NewSnapshot(table, nil, 0))

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/x", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "circuit breaker open")
}

func TestDispatcher_SetsRequestContext(t *testing.T) {
	t.Parallel()

	var gotRoute, gotMount, gotBinding string
	resolver := stubResolver{
		"app": backend.ForwarderFunc(func(r *http.Request) (*http.Response, error) {
			gotRoute = util.RouteFromContext(r.Context())
			gotMount = util.MountFromContext(r.Context())
			gotBinding = util.BindingFromContext(r.Context())
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{},
				Body:       io.NopCloser(bytes.NewReader(nil)),
				Request:    r,
			}, nil
		}),
	}
	table, err := router.Build(config.RoutesConfig{
		Routes: []config.RouteConfig{{Binding: "app", Path: "/:tenant"}},
	}, resolver)
	require.NoError(t, err)

	d := NewDispatcher()
	d.Publish(NewSnapshot(table, rewrite.NewAssetPrefixSet(nil), 0))

	req := httptest.NewRequest(http.MethodGet, "/acme/dashboard", nil)
	ctx, label := util.ContextWithRouteLabel(req.Context())
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/:tenant", gotRoute)
	assert.Equal(t, "/acme", gotMount)
	assert.Equal(t, "app", gotBinding)
	assert.Equal(t, "/:tenant", label.Route)
	assert.True(t, d.Ready())
}

type stubResolver map[string]backend.Forwarder

func (s stubResolver) Get(name string) (backend.Forwarder, bool) {
	f, ok := s[name]
	return f, ok
}
