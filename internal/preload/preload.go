package preload

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// ScriptName is the reserved file name of the fallback script under
// every mount.
const ScriptName = "__mf-preload.js"

// ScriptForwardPath is the forward path that selects the fallback script.
const ScriptForwardPath = "/" + ScriptName

// TransitionsCSS enables cross-document view transitions.
const TransitionsCSS = `@supports (view-transition-name: none) {
  ::view-transition-old(root),
  ::view-transition-new(root) {
    animation-duration: 0.3s;
    animation-timing-function: ease-in-out;
  }
  main { view-transition-name: main-content; }
  nav { view-transition-name: navigation; }
}`

const (
	scriptContentType  = "application/javascript; charset=utf-8"
	scriptCacheControl = "public, max-age=300"
)

// IsChromium reports whether ua names a browser that supports the
// Speculation Rules API.
func IsChromium(ua string) bool {
	if ua == "" {
		return false
	}
	ua = strings.ToLower(ua)
	hasChrome := strings.Contains(ua, "chrome")
	chromium := hasChrome ||
		strings.Contains(ua, "edg/") ||
		strings.Contains(ua, "opr/") ||
		strings.Contains(ua, "brave")
	firefox := strings.Contains(ua, "firefox")
	safari := strings.Contains(ua, "safari") && !hasChrome
	return chromium && !firefox && !safari
}

type speculationRules struct {
	Prefetch []prefetchRule `json:"prefetch"`
}

type prefetchRule struct {
	URLs []string `json:"urls"`
}

// SpeculationRules returns the prefetch rule set for mounts.
func SpeculationRules(mounts []string) string {
	urls := mounts
	if urls == nil {
		urls = []string{}
	}
	return mustJSON(speculationRules{Prefetch: []prefetchRule{{URLs: urls}}})
}

// ScriptPath returns the public path of the fallback script for mount.
func ScriptPath(mount string) string {
	mount = util.NormalizePath(mount)
	if mount == "/" {
		return ScriptForwardPath
	}
	return mount + ScriptForwardPath
}

// Script returns the fallback script that fetches every mount once the
// DOM is ready. Fetch failures are ignored.
func Script(mounts []string) string {
	routes := mounts
	if routes == nil {
		routes = []string{}
	}
	return `(()=>{const routes=` + mustJSON(routes) + `;` +
		`const run=()=>{for(const p of routes){fetch(p,{method:"GET",credentials:"same-origin",cache:"default"}).catch(()=>{});}};` +
		`if(document.readyState==="loading"){document.addEventListener("DOMContentLoaded",run,{once:true});}else{run();}` +
		`})();`
}

// ReplaceWithScript turns resp into a cacheable 200 carrying the
// fallback script. The backend body and headers are discarded. HEAD
// requests keep the headers without a body.
func ReplaceWithScript(resp *http.Response, mounts []string) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	body := Script(mounts)

	h := make(http.Header, 3)
	h.Set("Content-Type", scriptContentType)
	h.Set("Cache-Control", scriptCacheControl)
	h.Set("Content-Length", strconv.Itoa(len(body)))

	resp.StatusCode = http.StatusOK
	resp.Status = "200 OK"
	resp.Header = h
	resp.Trailer = nil
	resp.TransferEncoding = nil
	resp.Uncompressed = false
	resp.ContentLength = int64(len(body))

	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		resp.Body = http.NoBody
		return
	}
	resp.Body = io.NopCloser(strings.NewReader(body))
	getPreloadMetrics().scriptsServed.Inc()
}

// mustJSON encodes values that cannot fail to marshal. HTML escaping is
// kept so that a mount can never close the surrounding script element.
func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
