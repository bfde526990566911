package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_RejectsBadFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"empty api version", func(c *Config) { c.Storage.APIVersion = "" }, "api_version"},
		{"bad chunk size", func(c *Config) { c.Transfers.ChunkSize = "huge" }, "chunk_size"},
		{"zero chunk size", func(c *Config) { c.Transfers.ChunkSize = "0" }, "chunk_size"},
		{"zero workers", func(c *Config) { c.Transfers.Workers = 0 }, "workers"},
		{"zero attempts", func(c *Config) { c.Transfers.MaxAttempts = 0 }, "max_attempts"},
		{"bad bandwidth", func(c *Config) { c.Transfers.BandwidthLimit = "fast" }, "bandwidth_limit"},
		{"bad connect timeout", func(c *Config) { c.Network.ConnectTimeout = "soon" }, "connect_timeout"},
		{"negative read timeout", func(c *Config) { c.Network.ReadTimeout = "-5s" }, "read_timeout"},
		{"bad log level", func(c *Config) { c.Logging.LogLevel = "verbose" }, "log_level"},
		{"bad log format", func(c *Config) { c.Logging.LogFormat = "xml" }, "log_format"},
		{"bad http code", func(c *Config) { c.Retry.HTTPCodes = []int{42} }, "http_codes"},
		{"negative transport code", func(c *Config) { c.Retry.TransportCodes = []int{-1} }, "transport_codes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_ZeroReadTimeoutDisablesStallDetection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.ReadTimeout = "0s"

	require.NoError(t, Validate(cfg))
	assert.Zero(t, cfg.ReadTimeout())
}
