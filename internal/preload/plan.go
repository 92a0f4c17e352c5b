package preload

import "html"

// Method names the prefetch mechanism chosen for a response.
type Method string

// Prefetch mechanisms.
const (
	MethodNone        Method = "none"
	MethodSpeculation Method = "speculation_rules"
	MethodScript      Method = "script"
)

// Options describes the page being rewritten.
type Options struct {
	// Mount is the concrete mount serving the page.
	Mount string
	// UserAgent is the requesting browser's User-Agent.
	UserAgent string
	// Mounts are the static mounts to prefetch, current mount excluded.
	Mounts []string
	// SmoothTransitions adds the view transition stylesheet.
	SmoothTransitions bool
}

// Injection is the markup to insert into an HTML page.
type Injection struct {
	Head   string
	Body   string
	Method Method
}

// Empty reports whether there is nothing to insert.
func (i Injection) Empty() bool {
	return i.Head == "" && i.Body == ""
}

// Plan decides which hints a page receives.
func Plan(opts Options) Injection {
	var inj Injection
	inj.Method = MethodNone

	if opts.SmoothTransitions {
		inj.Head += "<style>" + TransitionsCSS + "</style>"
	}

	if len(opts.Mounts) > 0 {
		if IsChromium(opts.UserAgent) {
			inj.Head += `<script type="speculationrules">` + SpeculationRules(opts.Mounts) + `</script>`
			inj.Method = MethodSpeculation
		} else {
			inj.Body = `<script src="` + html.EscapeString(ScriptPath(opts.Mount)) + `" defer></script>`
			inj.Method = MethodScript
		}
	}

	if inj.Method != MethodNone {
		getPreloadMetrics().plans.WithLabelValues(string(inj.Method)).Inc()
	}
	return inj
}
