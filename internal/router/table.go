package router

import (
	"fmt"
	"sort"

	"github.com/vyrodovalexey/mfrouter/internal/backend"
	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// rootExpr is the expression of the fallback route.
const rootExpr = "/"

// BindingResolver looks up the forwarder for a binding name.
type BindingResolver interface {
	Get(name string) (backend.Forwarder, bool)
}

// CompiledRoute is an immutable, ready-to-match route.
type CompiledRoute struct {
	Expr      string
	Binding   string
	Forwarder backend.Forwarder
	Preload   bool
	Matcher   *PathMatcher
}

// IsStaticMount reports whether the route has no parameters, constraints or escapes.
func (r *CompiledRoute) IsStaticMount() bool {
	return r.Matcher.IsStatic()
}

// StaticMount returns the literal mount of a static route, or "".
func (r *CompiledRoute) StaticMount() string {
	if !r.Matcher.IsStatic() {
		return ""
	}
	return r.Expr
}

// BaseSpecificity is the literal prefix length of the expression.
func (r *CompiledRoute) BaseSpecificity() int {
	return r.Matcher.BaseSpecificity()
}

// Table is an ordered, immutable set of compiled routes.
type Table struct {
	routes            []*CompiledRoute
	root              *CompiledRoute
	smoothTransitions bool
}

// Build compiles cfg into a Table. Every binding must resolve.
func Build(cfg config.RoutesConfig, resolver BindingResolver) (*Table, error) {
	if len(cfg.Routes) == 0 {
		return nil, util.NewConfigError("routes", "must contain at least one route definition")
	}

	t := &Table{
		routes:            make([]*CompiledRoute, 0, len(cfg.Routes)),
		smoothTransitions: cfg.SmoothTransitions,
	}
	seen := make(map[string]struct{}, len(cfg.Routes))

	for i, rc := range cfg.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		if rc.Binding == "" || rc.Path == "" {
			return nil, util.NewConfigError(field, "binding and path are required")
		}

		fwd, ok := resolver.Get(rc.Binding)
		if !ok {
			return nil, util.NewConfigError(field+".binding",
				fmt.Sprintf("binding %q not found", rc.Binding))
		}

		matcher, err := CompilePath(rc.Path)
		if err != nil {
			return nil, util.NewConfigErrorWithCause(field+".path", "invalid path expression", err)
		}

		expr := matcher.Expr()
		if _, dup := seen[expr]; dup {
			return nil, util.NewConfigError(field+".path", fmt.Sprintf("duplicate route expression %q", expr))
		}
		seen[expr] = struct{}{}

		route := &CompiledRoute{
			Expr:      expr,
			Binding:   rc.Binding,
			Forwarder: fwd,
			Preload:   rc.Preload,
			Matcher:   matcher,
		}
		if expr == rootExpr {
			t.root = route
		}
		t.routes = append(t.routes, route)
	}

	sort.SliceStable(t.routes, func(i, j int) bool {
		a, b := t.routes[i], t.routes[j]
		if a.BaseSpecificity() != b.BaseSpecificity() {
			return a.BaseSpecificity() > b.BaseSpecificity()
		}
		return len(a.Expr) > len(b.Expr)
	})

	return t, nil
}

// Routes returns the routes in table order.
func (t *Table) Routes() []*CompiledRoute {
	out := make([]*CompiledRoute, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.routes) }

// Root returns the route with expression "/", if configured.
func (t *Table) Root() *CompiledRoute { return t.root }

// SmoothTransitions reports whether view-transition CSS is injected.
func (t *Table) SmoothTransitions() bool { return t.smoothTransitions }

// PreloadMounts returns the static mounts flagged for preload, in
// table order, excluding current.
func (t *Table) PreloadMounts(current string) []string {
	var mounts []string
	for _, r := range t.routes {
		if !r.Preload || !r.IsStaticMount() {
			continue
		}
		if m := r.StaticMount(); m != current {
			mounts = append(mounts, m)
		}
	}
	return mounts
}
