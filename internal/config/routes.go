package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// RouteConfig maps a path expression to a backend binding.
type RouteConfig struct {
	Binding string `yaml:"binding" json:"binding"`
	Path    string `yaml:"path" json:"path"`
	Preload bool   `yaml:"preload,omitempty" json:"preload,omitempty"`
}

// RoutesConfig is the route list plus global presentation options.
type RoutesConfig struct {
	SmoothTransitions bool          `yaml:"smoothTransitions,omitempty" json:"smoothTransitions,omitempty"`
	Routes            []RouteConfig `yaml:"routes,omitempty" json:"routes,omitempty"`
}

// ParseRoutes decodes the ROUTES document. It accepts a JSON array of
// routes or an object carrying "routes" and "smoothTransitions".
func ParseRoutes(raw string) (RoutesConfig, error) {
	data := bytes.TrimSpace([]byte(raw))

	var rc RoutesConfig
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &rc.Routes); err != nil {
			return RoutesConfig{}, util.NewConfigErrorWithCause("ROUTES", "failed to parse", err)
		}
	} else if err := json.Unmarshal(data, &rc); err != nil {
		return RoutesConfig{}, util.NewConfigErrorWithCause("ROUTES", "failed to parse", err)
	}

	if len(rc.Routes) == 0 {
		return RoutesConfig{}, util.NewConfigError("ROUTES", "must contain at least one route definition")
	}
	for _, r := range rc.Routes {
		if err := r.check(); err != nil {
			return RoutesConfig{}, err
		}
	}

	return rc, nil
}

func (r RouteConfig) check() error {
	if r.Binding != "" && r.Path != "" {
		return nil
	}
	encoded, _ := json.Marshal(r)
	return util.NewConfigError("ROUTES", fmt.Sprintf("invalid route configuration: %s", encoded))
}
