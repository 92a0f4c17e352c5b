package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("MFROUTER_CONFIG_PATH", "/etc/mfrouter/config.yaml")
	t.Setenv("MFROUTER_LOG_LEVEL", "")

	tests := []struct {
		name string
		args []string
		want cliFlags
	}{
		{
			name: "environment defaults",
			want: cliFlags{configPath: "/etc/mfrouter/config.yaml", logLevel: "info", logFormat: "json"},
		},
		{
			name: "flags override environment",
			args: []string{"-config", "local.yaml", "-log-level", "debug", "-log-format", "console"},
			want: cliFlags{configPath: "local.yaml", logLevel: "debug", logFormat: "console"},
		},
		{
			name: "version",
			args: []string{"-version"},
			want: cliFlags{configPath: "/etc/mfrouter/config.yaml", logLevel: "info", logFormat: "json", showVersion: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFlags(tt.args))
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("MFROUTER_TEST_VALUE", "set")

	assert.Equal(t, "set", getEnvOrDefault("MFROUTER_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", getEnvOrDefault("MFROUTER_TEST_UNSET", "fallback"))
}
