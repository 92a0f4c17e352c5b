package backend

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry(observability.NopLogger())
	t.Cleanup(r.Close)

	err := r.LoadFromConfig(map[string]config.BindingConfig{
		"B": {URL: "http://b:3000"},
		"A": {URL: "http://a:3000"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, r.Names())

	f, ok := r.Get("A")
	require.True(t, ok)
	assert.Equal(t, "a:3000", f.(*HTTPForwarder).Target().Host)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	stub := ForwarderFunc(func(*http.Request) (*http.Response, error) { return nil, nil })
	require.NoError(t, r.Register("C", stub))
	assert.Error(t, r.Register("C", stub))
}

func TestRegistry_LoadFromConfigError(t *testing.T) {
	t.Parallel()

	r := NewRegistry(observability.NopLogger())
	err := r.LoadFromConfig(map[string]config.BindingConfig{"X": {URL: "::bad"}})
	assert.Error(t, err)
}
