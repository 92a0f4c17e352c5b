package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// BindingConfig describes an upstream service a route forwards to.
type BindingConfig struct {
	URL            string               `yaml:"url" json:"url"`
	Timeout        Duration             `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	PreserveHost   bool                 `yaml:"preserveHost,omitempty" json:"preserveHost,omitempty"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// CircuitBreakerConfig configures the per-binding breaker.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// bindingFields avoids recursion in the custom unmarshalers.
type bindingFields BindingConfig

// UnmarshalJSON accepts either a URL string or a binding object.
func (b *BindingConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*b = BindingConfig{URL: url}
		return nil
	}
	var fields bindingFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*b = BindingConfig(fields)
	return nil
}

// UnmarshalYAML accepts either a URL scalar or a binding mapping.
func (b *BindingConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*b = BindingConfig{URL: node.Value}
		return nil
	}
	var fields bindingFields
	if err := node.Decode(&fields); err != nil {
		return err
	}
	*b = BindingConfig(fields)
	return nil
}

func (b *BindingConfig) applyDefaults() {
	if b.Timeout == 0 {
		b.Timeout = Duration(DefaultBindingTimeout)
	}
	if b.CircuitBreaker.Threshold == 0 {
		b.CircuitBreaker.Threshold = DefaultBreakerThreshold
	}
	if b.CircuitBreaker.Timeout == 0 {
		b.CircuitBreaker.Timeout = Duration(DefaultBreakerTimeout)
	}
}

// ParseBindings decodes the BINDINGS document, a JSON object keyed by
// binding name.
func ParseBindings(raw string) (map[string]BindingConfig, error) {
	var bindings map[string]BindingConfig
	if err := json.Unmarshal([]byte(raw), &bindings); err != nil {
		return nil, util.NewConfigErrorWithCause("BINDINGS", "failed to parse", err)
	}
	for name, b := range bindings {
		if b.URL == "" {
			return nil, util.NewConfigError("BINDINGS", fmt.Sprintf("binding %q has no url", name))
		}
	}
	return bindings, nil
}

// ParseAssetPrefixes decodes the ASSET_PREFIXES document. Entries that
// are not strings are ignored.
func ParseAssetPrefixes(raw string) ([]string, error) {
	var entries []interface{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, util.NewConfigErrorWithCause("ASSET_PREFIXES", "failed to parse", err)
	}
	prefixes := make([]string, 0, len(entries))
	for _, e := range entries {
		if s, ok := e.(string); ok {
			prefixes = append(prefixes, s)
		}
	}
	return prefixes, nil
}
