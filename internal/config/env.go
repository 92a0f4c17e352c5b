package config

import (
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// Environment variable names read by ApplyEnv.
const (
	EnvRoutes        = "ROUTES"
	EnvAssetPrefixes = "ASSET_PREFIXES"
	EnvBindings      = "BINDINGS"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays ROUTES, BINDINGS and ASSET_PREFIXES onto cfg.
// A malformed ROUTES or BINDINGS value is an error. A malformed
// ASSET_PREFIXES value is logged and ignored.
func ApplyEnv(cfg *Config, lookup LookupFunc, logger observability.Logger) error {
	if raw, ok := lookup(EnvRoutes); ok {
		routes, err := ParseRoutes(raw)
		if err != nil {
			return err
		}
		cfg.RoutesConfig = routes
	}

	if raw, ok := lookup(EnvBindings); ok {
		bindings, err := ParseBindings(raw)
		if err != nil {
			return err
		}
		if cfg.Bindings == nil {
			cfg.Bindings = make(map[string]BindingConfig, len(bindings))
		}
		for name, b := range bindings {
			b.applyDefaults()
			cfg.Bindings[name] = b
		}
	}

	if raw, ok := lookup(EnvAssetPrefixes); ok {
		prefixes, err := ParseAssetPrefixes(raw)
		if err != nil {
			logger.Warn("ignoring ASSET_PREFIXES, using defaults only",
				observability.Error(err),
			)
		} else {
			cfg.AssetPrefixes = prefixes
		}
	}

	return nil
}
