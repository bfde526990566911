package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
[storage]
account = "myacct"
container = "backups"
api_version = "2021-08-06"

[identity]
tenant = "contoso.onmicrosoft.com"
client_id = "11111111-2222-3333-4444-555555555555"

[transfers]
chunk_size = "4MiB"
workers = 4
max_attempts = 3
bandwidth_limit = "10MB"

[retry]
http_codes = [429, 503]

[network]
connect_timeout = "5s"
read_timeout = "30s"

[logging]
log_level = "debug"
log_format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "myacct", cfg.Storage.Account)
	assert.Equal(t, "backups", cfg.Storage.Container)
	assert.Equal(t, "contoso.onmicrosoft.com", cfg.Identity.Tenant)
	assert.Equal(t, int64(4*1024*1024), cfg.ChunkSizeBytes())
	assert.Equal(t, 4, cfg.Transfers.Workers)
	assert.Equal(t, 3, cfg.Transfers.MaxAttempts)
	assert.Equal(t, []int{429, 503}, cfg.Retry.HTTPCodes)
	assert.Equal(t, "5s", cfg.Network.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)

	// Unset fields keep defaults.
	assert.Equal(t, defaultScope, cfg.Identity.Scope)
	assert.Equal(t, defaultResource, cfg.Identity.Resource)
}

func TestLoad_UnknownKeySuggestion(t *testing.T) {
	path := writeConfig(t, `
[transfers]
chunk_sizes = "4MiB"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"transfers.chunk_sizes"`)
	assert.Contains(t, err.Error(), `did you mean "transfers.chunk_size"?`)
}

func TestLoad_UnknownSection(t *testing.T) {
	path := writeConfig(t, `
[upload]
workers = 3
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoadOrDefault_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultAPIVersion, cfg.Storage.APIVersion)
	assert.Equal(t, defaultWorkers, cfg.Transfers.Workers)
	assert.Equal(t, defaultMaxAttempts, cfg.Transfers.MaxAttempts)
	assert.Equal(t, int64(8*1024*1024), cfg.ChunkSizeBytes())
	require.NoError(t, Validate(cfg))
}

func TestResolve_CLIOverridesWin(t *testing.T) {
	path := writeConfig(t, `
[storage]
account = "fileacct"
container = "filecont"

[transfers]
workers = 2
`)

	workers := 16
	limit := "5MB"

	cfg, err := Resolve(EnvOverrides{}, CLIOverrides{
		ConfigPath:     path,
		Account:        "cliacct",
		Workers:        &workers,
		BandwidthLimit: &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, "cliacct", cfg.Storage.Account)
	assert.Equal(t, "filecont", cfg.Storage.Container, "unset CLI fields keep file values")
	assert.Equal(t, 16, cfg.Transfers.Workers)
	assert.Equal(t, "5MB", cfg.Transfers.BandwidthLimit)
	assert.NotEmpty(t, cfg.Transfers.JournalPath)
}

func TestResolve_EnvConfigPath(t *testing.T) {
	path := writeConfig(t, `
[storage]
account = "envacct"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "envacct", cfg.Storage.Account)
}

func TestResolve_CLIPathBeatsEnvPath(t *testing.T) {
	envPath := writeConfig(t, `
[storage]
account = "envacct"
`)
	cliPath := writeConfig(t, `
[storage]
account = "cliacct"
`)

	cfg, err := Resolve(EnvOverrides{ConfigPath: envPath}, CLIOverrides{ConfigPath: cliPath})
	require.NoError(t, err)
	assert.Equal(t, "cliacct", cfg.Storage.Account)
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.toml")
	t.Setenv(EnvClientSecret, "s3cret")
	t.Setenv(EnvRefreshToken, "refresh")
	t.Setenv(EnvBearerToken, "bearer")

	env := ReadEnvOverrides()
	assert.Equal(t, "/tmp/custom.toml", env.ConfigPath)
	assert.Equal(t, "s3cret", env.ClientSecret)
	assert.Equal(t, "refresh", env.RefreshToken)
	assert.Equal(t, "bearer", env.BearerToken)
}
