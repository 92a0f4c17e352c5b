// Package backend forwards requests to the upstream services that
// routes are bound to.
//
// A binding is a named upstream. Each binding gets an HTTPForwarder
// with its own timeout and, optionally, a circuit breaker:
//
//	registry := backend.NewRegistry(logger)
//	if err := registry.LoadFromConfig(cfg.Bindings); err != nil {
//	    return err
//	}
//	fwd, ok := registry.Get("DOCS")
//
// Forwarders speak plain net/http: the dispatcher hands them an
// outbound request whose path has already had the mount stripped.
package backend
