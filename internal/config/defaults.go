package config

// Default values for configuration options. These are the "layer 0" of
// the override chain and work against any standard storage account
// without a config file, given an account name and credentials.
const (
	defaultAPIVersion     = "2021-08-06"
	defaultScope          = "https://storage.azure.com/.default"
	defaultResource       = "https://storage.azure.com/"
	defaultChunkSize      = "8MiB"
	defaultWorkers        = 8
	defaultMaxAttempts    = 5
	defaultBandwidthLimit = "0"
	defaultConnectTimeout = "10s"
	defaultReadTimeout    = "60s"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// DefaultConfig returns a Config populated with all default values.
// It is the starting point for TOML decoding (unset fields keep their
// defaults) and the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			APIVersion: defaultAPIVersion,
		},
		Identity: IdentityConfig{
			Scope:    defaultScope,
			Resource: defaultResource,
		},
		Transfers: TransfersConfig{
			ChunkSize:      defaultChunkSize,
			Workers:        defaultWorkers,
			MaxAttempts:    defaultMaxAttempts,
			BandwidthLimit: defaultBandwidthLimit,
		},
		Network: NetworkConfig{
			ConnectTimeout: defaultConnectTimeout,
			ReadTimeout:    defaultReadTimeout,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
