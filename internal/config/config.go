package config

import "time"

// Default values.
const (
	DefaultAddress            = ":8080"
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 60 * time.Second
	DefaultIdleTimeout        = 120 * time.Second
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultBindingTimeout     = 30 * time.Second
	DefaultMaxRewriteBodySize = 10 << 20
	DefaultMetricsAddress     = ":9090"
	DefaultMetricsPath        = "/metrics"
	DefaultServiceName        = "mfrouter"
	DefaultBreakerThreshold   = 5
	DefaultBreakerTimeout     = 30 * time.Second
	DefaultRateLimitRPS       = 100
	DefaultRateLimitBurst     = 200
)

// Config is the complete router configuration.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`

	RoutesConfig `yaml:",inline"`

	// AssetPrefixes are extra path prefixes treated as assets on top
	// of the built-in defaults.
	AssetPrefixes []string `yaml:"assetPrefixes,omitempty" json:"assetPrefixes,omitempty"`

	// MaxRewriteBodySize caps the decoded size of HTML and CSS bodies
	// that are rewritten. Larger bodies pass through unmodified.
	MaxRewriteBodySize int64 `yaml:"maxRewriteBodySize,omitempty" json:"maxRewriteBodySize,omitempty"`

	Bindings map[string]BindingConfig `yaml:"bindings,omitempty" json:"bindings,omitempty"`

	RateLimit     RateLimitConfig     `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	Observability ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// ServerConfig configures the public listener.
type ServerConfig struct {
	Address         string   `yaml:"address,omitempty" json:"address,omitempty"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout     Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`

	// TrustedProxies lists the IPs and CIDRs whose X-Forwarded-For
	// header is believed when resolving the client address.
	TrustedProxies []string `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`
}

// RateLimitConfig configures the token-bucket limiter in front of the
// dispatcher.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	RequestsPerSecond int  `yaml:"requestsPerSecond,omitempty" json:"requestsPerSecond,omitempty"`
	Burst             int  `yaml:"burst,omitempty" json:"burst,omitempty"`
	PerClient         bool `yaml:"perClient,omitempty" json:"perClient,omitempty"`
}

// ObservabilityConfig groups metrics and tracing settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// MetricsConfig configures the metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
}

// DefaultConfig returns a Config with defaults and no routes.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Tracing.SamplingRate = 1.0
	return cfg
}

// ApplyDefaults fills zero-valued settings with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.MaxRewriteBodySize == 0 {
		c.MaxRewriteBodySize = DefaultMaxRewriteBodySize
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = DefaultRateLimitBurst
	}
	if c.Observability.Metrics.Address == "" {
		c.Observability.Metrics.Address = DefaultMetricsAddress
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = DefaultMetricsPath
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = DefaultServiceName
	}
	for name, b := range c.Bindings {
		b.applyDefaults()
		c.Bindings[name] = b
	}
}
