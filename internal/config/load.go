package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns
// the resulting Config. Unknown keys are fatal errors with "did you
// mean?" suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise
// returns a Config populated with all default values. Users can start
// with flags and environment variables alone, no config file needed.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> CLI flags. CLI flags always win, matching
// user expectations for one-off overrides without editing the file.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if cli.Account != "" {
		cfg.Storage.Account = cli.Account
	}

	if cli.Container != "" {
		cfg.Storage.Container = cli.Container
	}

	// Pointer fields: nil = not specified on the command line.
	if cli.Workers != nil {
		cfg.Transfers.Workers = *cli.Workers
	}

	if cli.MaxAttempts != nil {
		cfg.Transfers.MaxAttempts = *cli.MaxAttempts
	}

	if cli.BandwidthLimit != nil {
		cfg.Transfers.BandwidthLimit = *cli.BandwidthLimit
	}

	if cfg.Transfers.JournalPath == "" {
		cfg.Transfers.JournalPath = DefaultJournalPath()
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}
