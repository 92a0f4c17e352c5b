package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"sort"
	"strings"
)

// ValidationError is a single configuration problem.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e[i].Error())
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator collects every problem in a Config rather than stopping at
// the first.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates cfg.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate returns ValidationErrors when cfg is unusable.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = nil

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateRoutes(cfg.Routes, cfg.Bindings)
	v.validateBindings(cfg.Bindings)

	if cfg.MaxRewriteBodySize < 0 {
		v.addError("maxRewriteBodySize", "must not be negative")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			v.addError("rateLimit.requestsPerSecond", "must be positive")
		}
		if cfg.RateLimit.Burst <= 0 {
			v.addError("rateLimit.burst", "must be positive")
		}
	}
	v.validateObservability(&cfg.Observability)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(s *ServerConfig) {
	if s.Address == "" {
		v.addError("server.address", "address is required")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 || s.ShutdownTimeout < 0 {
		v.addError("server", "timeouts must not be negative")
	}
	for i, p := range s.TrustedProxies {
		if !validProxyEntry(p) {
			v.addError(fmt.Sprintf("server.trustedProxies[%d]", i), "must be an IP address or CIDR")
		}
	}
}

func validProxyEntry(s string) bool {
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func (v *Validator) validateRoutes(routes []RouteConfig, bindings map[string]BindingConfig) {
	if len(routes) == 0 {
		v.addError("routes", "at least one route is required; set ROUTES or routes in the config file")
		return
	}

	for i, r := range routes {
		path := fmt.Sprintf("routes[%d]", i)
		if r.Path == "" {
			v.addError(path+".path", "path is required")
		}
		if r.Binding == "" {
			v.addError(path+".binding", "binding is required")
			continue
		}
		if _, ok := bindings[r.Binding]; !ok {
			v.addError(path+".binding", fmt.Sprintf("binding %q not found", r.Binding))
		}
	}
}

func (v *Validator) validateBindings(bindings map[string]BindingConfig) {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := bindings[name]
		path := "bindings." + name
		if err := validateUpstreamURL(b.URL); err != nil {
			v.addError(path+".url", err.Error())
		}
		if b.Timeout < 0 {
			v.addError(path+".timeout", "must not be negative")
		}
		if b.CircuitBreaker.Enabled && b.CircuitBreaker.Threshold <= 0 {
			v.addError(path+".circuitBreaker.threshold", "must be positive")
		}
	}
}

func validateUpstreamURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}

func (v *Validator) validateObservability(o *ObservabilityConfig) {
	if o.Metrics.Enabled && !strings.HasPrefix(o.Metrics.Path, "/") {
		v.addError("observability.metrics.path", "must start with /")
	}
	if o.Tracing.SamplingRate < 0 || o.Tracing.SamplingRate > 1 {
		v.addError("observability.tracing.samplingRate", "must be between 0 and 1")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
