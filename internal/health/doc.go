// Package health provides health, readiness and liveness probe
// endpoints for the router.
//
// Readiness is driven by registered checks. The router registers a
// check that reports unhealthy until a route snapshot has been
// published, so an instance only receives traffic once its routing
// table is loaded.
//
//	checker := health.NewChecker(version)
//	checker.RegisterCheck("routes", health.RoutesLoadedCheck(dispatcher.Ready))
//
//	mux := http.NewServeMux()
//	mux.Handle("/health", checker.HealthHandler())
//	mux.Handle("/ready", checker.ReadinessHandler())
//	mux.Handle("/live", checker.LivenessHandler())
package health
