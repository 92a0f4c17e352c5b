package util

import "strings"

// NormalizePath trims p, ensures a leading slash and drops a trailing
// slash unless the result is the root path.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// NormalizePrefix returns p with exactly one leading and one trailing
// slash. Blank input yields "".
func NormalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = "/" + strings.Trim(p, "/") + "/"
	if p == "//" {
		return "/"
	}
	return p
}

// StripMount removes mount from the front of p. The root mount leaves
// p unchanged; an exact match yields "/".
func StripMount(p, mount string) string {
	if mount == "/" || mount == "" {
		return p
	}
	if p == mount {
		return "/"
	}
	if strings.HasPrefix(p, mount+"/") {
		return p[len(mount):]
	}
	return p
}
