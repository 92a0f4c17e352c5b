package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.AssetPrefixes = []string{"/from-file/"}

	err := ApplyEnv(cfg, mapLookup(map[string]string{
		EnvRoutes:        `{"smoothTransitions":true,"routes":[{"binding":"APP1","path":"/app1","preload":true}]}`,
		EnvBindings:      `{"APP1":"http://app1:3000"}`,
		EnvAssetPrefixes: `["/media"]`,
	}), observability.NopLogger())
	require.NoError(t, err)

	assert.True(t, cfg.SmoothTransitions)
	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "/app1", cfg.Routes[0].Path)
	assert.Equal(t, "http://app1:3000", cfg.Bindings["APP1"].URL)
	assert.Equal(t, DefaultBindingTimeout, cfg.Bindings["APP1"].Timeout.Duration())
	assert.Equal(t, []string{"/media"}, cfg.AssetPrefixes)
}

func TestApplyEnv_MalformedAssetPrefixesWarns(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	cfg := DefaultConfig()
	cfg.AssetPrefixes = []string{"/keep/"}

	err := ApplyEnv(cfg, mapLookup(map[string]string{EnvAssetPrefixes: `[not json`}),
		observability.NewLoggerFromZap(zap.New(core)))
	require.NoError(t, err)

	assert.Equal(t, []string{"/keep/"}, cfg.AssetPrefixes)
	assert.Equal(t, 1, logs.FilterMessage("ignoring ASSET_PREFIXES, using defaults only").Len())
}

func TestApplyEnv_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad routes", env: map[string]string{EnvRoutes: `{`}},
		{name: "empty routes", env: map[string]string{EnvRoutes: `[]`}},
		{name: "bad bindings", env: map[string]string{EnvBindings: `[1]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ApplyEnv(DefaultConfig(), mapLookup(tt.env), observability.NopLogger())
			assert.Error(t, err)
		})
	}
}
