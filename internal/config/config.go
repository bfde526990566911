// Package config implements TOML configuration loading and validation
// for azblob-go. It supports a three-layer override chain
// (defaults -> config file -> environment/CLI) and keeps credential
// material out of the file entirely: secrets arrive via environment
// variables only.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Identity  IdentityConfig  `toml:"identity"`
	Transfers TransfersConfig `toml:"transfers"`
	Retry     RetryConfig     `toml:"retry"`
	Network   NetworkConfig   `toml:"network"`
	Logging   LoggingConfig   `toml:"logging"`
}

// StorageConfig names the target storage account and container.
type StorageConfig struct {
	Account    string `toml:"account"`
	Container  string `toml:"container"`
	APIVersion string `toml:"api_version"`
}

// IdentityConfig holds the non-secret half of the OAuth2 configuration.
// The client secret, refresh token, and bearer token are environment-only.
type IdentityConfig struct {
	Tenant    string `toml:"tenant"`
	ClientID  string `toml:"client_id"`
	Scope     string `toml:"scope"`
	Resource  string `toml:"resource"`
	LoginBase string `toml:"login_base"`
}

// TransfersConfig controls chunking, parallelism, and retry budget.
type TransfersConfig struct {
	ChunkSize      string `toml:"chunk_size"`
	Workers        int    `toml:"workers"`
	MaxAttempts    int    `toml:"max_attempts"`
	BandwidthLimit string `toml:"bandwidth_limit"`
	JournalPath    string `toml:"journal_path"`
}

// RetryConfig overrides which codes are considered transient. Empty
// lists mean the stock classification.
type RetryConfig struct {
	HTTPCodes      []int `toml:"http_codes"`
	TransportCodes []int `toml:"transport_codes"`
}

// NetworkConfig controls HTTP client behavior. read_timeout is the
// stall window: a transfer with no progress for this long is aborted.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// CLIOverrides holds values from CLI flags that override config file
// and environment settings. Pointer fields distinguish "not specified"
// (nil) from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath     string // --config flag (empty = use default)
	Account        string
	Container      string
	Workers        *int
	MaxAttempts    *int
	BandwidthLimit *string
}
