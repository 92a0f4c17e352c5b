// Package proxy dispatches requests to the mounted backend services.
//
// The Dispatcher is the router's http.Handler. For every request it
// loads the active Snapshot, selects a route, strips the concrete mount
// from the path, forwards the request through the route's binding and
// adapts the response to the mount:
//
//   - redirects get their Location header moved under the mount
//   - Set-Cookie headers with Path=/ are scoped to the mount
//   - HTML and CSS bodies have their asset references rewritten
//   - HTML pages receive prefetch hints and view transition styles
//
// The fallback preload script replaces the backend answer at
// <mount>/__mf-preload.js whenever the table has other static mounts
// flagged for preload. A backend redirect on that path is kept.
//
// # Usage
//
//	d := proxy.NewDispatcher(proxy.WithDispatcherLogger(logger))
//	snap, err := proxy.SnapshotFromConfig(cfg, registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.Publish(snap)
//	http.Handle("/", d)
package proxy
