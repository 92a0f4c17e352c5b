package rewrite

import (
	"net/url"
	"strings"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// RewriteLocation moves a redirect target that stays on origin under
// mount. Relative targets are resolved against origin and returned as
// a path with query and fragment; absolute targets stay absolute.
// Targets on another origin and values that do not parse are returned
// unchanged.
func RewriteLocation(location, mount string, origin *url.URL) string {
	mount = util.NormalizePath(mount)
	if location == "" || origin == nil || mount == "/" {
		return location
	}

	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	resolved := origin.ResolveReference(ref)
	if !sameOrigin(resolved, origin) || !strings.HasPrefix(resolved.Path, "/") {
		return location
	}

	resolved.Path = mount + resolved.Path
	if resolved.RawPath != "" {
		resolved.RawPath = mount + resolved.RawPath
	}

	if ref.Scheme != "" || ref.Host != "" {
		return resolved.String()
	}
	resolved.Scheme = ""
	resolved.Host = ""
	resolved.User = nil
	return resolved.String()
}

func sameOrigin(u, origin *url.URL) bool {
	return strings.EqualFold(u.Scheme, origin.Scheme) && strings.EqualFold(u.Host, origin.Host)
}
