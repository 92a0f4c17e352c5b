// Package rewrite adapts backend responses to the mount they are
// served under.
//
// Backends are written as if they owned the whole origin. Once a
// backend is mounted at a path prefix such as /docs, every absolute
// reference it emits to its own assets, redirects and cookies must be
// moved under that prefix. The functions in this package do that for
// HTML attributes, CSS url() references, Location headers and
// Set-Cookie paths.
//
// Only absolute paths that start with a known asset prefix are moved.
// Navigation links are left alone so that links between mounted
// applications keep working.
package rewrite
