package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBindings(t *testing.T) {
	t.Parallel()

	got, err := ParseBindings(`{
		"APP1": "http://app1:3000",
		"APP2": {"url": "http://app2:3000", "timeout": "5s", "preserveHost": true,
		         "circuitBreaker": {"enabled": true, "threshold": 3}}
	}`)
	require.NoError(t, err)

	assert.Equal(t, BindingConfig{URL: "http://app1:3000"}, got["APP1"])
	assert.Equal(t, "http://app2:3000", got["APP2"].URL)
	assert.Equal(t, 5*time.Second, got["APP2"].Timeout.Duration())
	assert.True(t, got["APP2"].PreserveHost)
	assert.Equal(t, 3, got["APP2"].CircuitBreaker.Threshold)
}

func TestParseBindings_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "not json", raw: `nope`, wantErr: "failed to parse"},
		{name: "missing url", raw: `{"APP1":{"timeout":"1s"}}`, wantErr: `binding "APP1" has no url`},
		{name: "bad duration", raw: `{"APP1":{"url":"http://x","timeout":"soon"}}`, wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseBindings(tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBindingConfig_YAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader(`
bindings:
  SHORT: http://short:1
  LONG:
    url: http://long:2
    timeout: 2s
`))
	require.NoError(t, err)

	assert.Equal(t, "http://short:1", cfg.Bindings["SHORT"].URL)
	assert.Equal(t, DefaultBindingTimeout, cfg.Bindings["SHORT"].Timeout.Duration())
	assert.Equal(t, 2*time.Second, cfg.Bindings["LONG"].Timeout.Duration())
	assert.Equal(t, DefaultBreakerThreshold, cfg.Bindings["LONG"].CircuitBreaker.Threshold)
}

func TestParseAssetPrefixes(t *testing.T) {
	t.Parallel()

	got, err := ParseAssetPrefixes(`["/media/", 42, "cdn", null]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/", "cdn"}, got)

	_, err = ParseAssetPrefixes(`{"a":1}`)
	assert.Error(t, err)
}
