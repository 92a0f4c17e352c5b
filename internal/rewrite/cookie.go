package rewrite

import (
	"net/http"
	"regexp"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// absCookiePath matches the start of an absolute Path attribute.
var absCookiePath = regexp.MustCompile(`(?i);\s*path=/`)

// RewriteSetCookies moves every Set-Cookie in h with an absolute Path
// under mount. Cookies without a Path are left as they are.
func RewriteSetCookies(h http.Header, mount string) {
	mount = util.NormalizePath(mount)
	if mount == "/" {
		return
	}
	cookies := h.Values("Set-Cookie")
	if len(cookies) == 0 {
		return
	}
	out := make([]string, len(cookies))
	for i, c := range cookies {
		out[i] = RewriteCookiePath(c, mount)
	}
	h["Set-Cookie"] = out
}

// RewriteCookiePath prefixes the first absolute Path attribute of a
// single Set-Cookie value with mount, so "Path=/" becomes "Path=/app/"
// and "Path=/api" becomes "Path=/app/api".
func RewriteCookiePath(cookie, mount string) string {
	mount = util.NormalizePath(mount)
	if mount == "/" {
		return cookie
	}
	loc := absCookiePath.FindStringIndex(cookie)
	if loc == nil {
		return cookie
	}
	return cookie[:loc[0]] + "; Path=" + mount + "/" + cookie[loc[1]:]
}
