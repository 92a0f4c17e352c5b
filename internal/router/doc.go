// Package router compiles route path expressions and selects the
// route that serves a request path.
//
// # Path Expressions
//
// A path expression is a normalized URL path whose segments may
// contain parameters:
//
//	/docs                   static mount
//	/:tenant/app            parameter, matches one segment
//	/:lang(en|fr)/blog      parameter with a regular expression constraint
//	/api/:rest*             zero or more trailing segments
//	/files/:rest+           one or more trailing segments
//	/\(legacy\)             escaped literal characters
//
// Every expression compiles to an anchored regular expression whose
// first capture group is the concrete mount, the request path prefix
// the backend does not see.
//
// # Matching
//
// Table.Match evaluates every route and keeps the best match ordered
// by mount length, then literal prefix length, then expression length.
// A route with expression "/" is used as a fallback when nothing else
// matches.
package router
