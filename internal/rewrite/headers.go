package rewrite

import (
	"net/http"
	"net/url"
	"strings"
)

// Headers that no longer describe a body once it has been rewritten.
var transformHeaders = []string{
	"Content-Length",
	"ETag",
	"Content-Encoding",
}

// SanitizeHeaders drops the headers that a rewritten body invalidates.
func SanitizeHeaders(h http.Header) {
	for _, name := range transformHeaders {
		h.Del(name)
	}
}

// RequestOrigin returns the scheme and host the client used to reach
// the router. X-Forwarded-Proto from a fronting proxy wins over the
// connection state.
func RequestOrigin(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		if i := strings.IndexByte(proto, ','); i >= 0 {
			proto = proto[:i]
		}
		proto = strings.ToLower(strings.TrimSpace(proto))
		if proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	return &url.URL{Scheme: scheme, Host: host}
}
