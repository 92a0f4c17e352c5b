// Package config loads and validates the router configuration.
//
// Configuration comes from an optional YAML file plus environment
// variables. ROUTES, ASSET_PREFIXES and BINDINGS in the environment
// override the corresponding file sections.
//
// # Routes
//
// ROUTES accepts either a bare array or an object with global options:
//
//	[{"binding":"DOCS","path":"/docs","preload":true}]
//	{"smoothTransitions":true,"routes":[{"binding":"HOME","path":"/"}]}
//
// # Bindings
//
// Bindings map a name used by routes to an upstream:
//
//	bindings:
//	  DOCS:
//	    url: http://docs:3000
//	    timeout: 30s
//
// In BINDINGS the value may also be a plain URL string.
//
// # Environment Variable Substitution
//
// The YAML file supports ${VAR} and ${VAR:-default}; $$ escapes a
// literal dollar sign.
//
// # Hot Reload
//
// Watcher re-reads the file on change and hands a validated Config to
// a callback. A broken file is reported and the previous Config stays
// in effect.
package config
