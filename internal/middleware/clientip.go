package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// ClientIPExtractor resolves the client address of a request. Without
// trusted proxies only the connection address is used; otherwise
// X-Forwarded-For is walked right to left past the trusted hops.
type ClientIPExtractor struct {
	trusted []netip.Prefix
}

// NewClientIPExtractor parses trustedProxies as CIDRs or single
// addresses. Entries that parse as neither are skipped.
func NewClientIPExtractor(trustedProxies []string) *ClientIPExtractor {
	e := &ClientIPExtractor{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			e.trusted = append(e.trusted, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			e.trusted = append(e.trusted, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return e
}

// Extract returns the client IP for r.
func (e *ClientIPExtractor) Extract(r *http.Request) string {
	remote := hostOnly(r.RemoteAddr)
	if len(e.trusted) == 0 || !e.isTrusted(remote) {
		return remote
	}

	hops := strings.Split(r.Header.Get(HeaderXForwardedFor), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !e.isTrusted(hop) {
			return hop
		}
	}
	return remote
}

func (e *ClientIPExtractor) isTrusted(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range e.trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

var globalExtractor atomic.Pointer[ClientIPExtractor]

func init() {
	globalExtractor.Store(NewClientIPExtractor(nil))
}

// SetGlobalIPExtractor replaces the extractor used by the logging and
// rate limiting middleware.
func SetGlobalIPExtractor(e *ClientIPExtractor) {
	if e != nil {
		globalExtractor.Store(e)
	}
}

func getClientIP(r *http.Request) string {
	return globalExtractor.Load().Extract(r)
}
