package router

// MatchResult is the outcome of Table.Match.
type MatchResult struct {
	Route *CompiledRoute
	// Mount is the concrete, normalized path prefix that was matched.
	Mount string
	// Fallback is set when the root route was chosen because nothing
	// else matched.
	Fallback bool
}

// Match selects the route for path. Among matching routes the winner
// has the longest mount, then the highest base specificity, then the
// longest expression; earlier table positions win exact ties.
func (t *Table) Match(path string) (MatchResult, bool) {
	var (
		best  MatchResult
		found bool
	)

	for _, r := range t.routes {
		mount, ok := r.Matcher.Match(path)
		if !ok {
			continue
		}
		candidate := MatchResult{Route: r, Mount: mount}
		if !found || better(candidate, best) {
			best = candidate
			found = true
		}
	}

	m := getRouterMetrics()
	switch {
	case found:
		m.matches.WithLabelValues(outcomeMatched).Inc()
		return best, true
	case t.root != nil:
		m.matches.WithLabelValues(outcomeFallback).Inc()
		return MatchResult{Route: t.root, Mount: rootExpr, Fallback: true}, true
	default:
		m.matches.WithLabelValues(outcomeNotFound).Inc()
		return MatchResult{}, false
	}
}

func better(a, b MatchResult) bool {
	if len(a.Mount) != len(b.Mount) {
		return len(a.Mount) > len(b.Mount)
	}
	if as, bs := a.Route.BaseSpecificity(), b.Route.BaseSpecificity(); as != bs {
		return as > bs
	}
	return len(a.Route.Expr) > len(b.Route.Expr)
}
