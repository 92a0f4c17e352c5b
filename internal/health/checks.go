package health

import "fmt"

// RoutesLoadedCheck reports unhealthy until ready returns true.
func RoutesLoadedCheck(ready func() bool) CheckFunc {
	return func() Check {
		if ready == nil || !ready() {
			return Check{Status: StatusUnhealthy, Message: "route table not loaded"}
		}
		return Check{Status: StatusHealthy, Message: "route table loaded"}
	}
}

// BindingsCheck reports degraded when no backend bindings are
// registered. A router without bindings can still answer 404s.
func BindingsCheck(names func() []string) CheckFunc {
	return func() Check {
		n := 0
		if names != nil {
			n = len(names())
		}
		if n == 0 {
			return Check{Status: StatusDegraded, Message: "no backend bindings registered"}
		}
		return Check{Status: StatusHealthy, Message: fmt.Sprintf("%d backend bindings registered", n)}
	}
}
