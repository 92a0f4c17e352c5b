package rewrite

import "github.com/vyrodovalexey/mfrouter/internal/util"

// RewriteCSS prefixes url() references to absolute asset paths with
// mount. The root mount leaves css unchanged.
func RewriteCSS(css, mount string, assets *AssetPrefixSet) string {
	mount = util.NormalizePath(mount)
	if mount == "/" || assets == nil || assets.Len() == 0 {
		return css
	}
	return assets.cssPattern().ReplaceAllString(css, "url(${1}"+escapeReplacement(mount)+"${2}")
}

// escapeReplacement protects literal dollar signs in a replacement
// template.
func escapeReplacement(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '$' {
			out = append(out, '$')
		}
		out = append(out, s[i])
	}
	return string(out)
}
