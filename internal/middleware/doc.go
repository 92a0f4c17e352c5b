// Package middleware provides the HTTP middleware wrapped around the
// request dispatcher.
//
// # Middleware Components
//
//   - Recovery: panic recovery with stack trace logging
//   - RequestID: unique request identifier injection
//   - Logging: structured access logging
//   - RateLimit: token bucket rate limiting, global or per client
//   - Client IP: trusted proxy-aware client IP extraction
//
// # Usage
//
// Middleware functions follow the standard Go pattern and are composed
// with Chain, outermost first:
//
//	handler := middleware.Chain(
//	    middleware.Recovery(logger),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)(dispatcher)
package middleware
