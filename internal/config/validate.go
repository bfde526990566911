package config

import (
	"errors"
	"fmt"
	"time"
)

// Valid logging option values.
var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"auto": true, "text": true, "json": true}
)

// Validate checks every field that can be malformed independent of how
// the config will be used. Target account/container presence is checked
// at command time, since some commands (history) need neither.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Storage.APIVersion == "" {
		errs = append(errs, errors.New("storage.api_version must not be empty"))
	}

	if size, err := ParseSize(cfg.Transfers.ChunkSize); err != nil {
		errs = append(errs, fmt.Errorf("transfers.chunk_size: %w", err))
	} else if size < 1 {
		errs = append(errs, fmt.Errorf("transfers.chunk_size %q must be positive", cfg.Transfers.ChunkSize))
	}

	if cfg.Transfers.Workers < 1 {
		errs = append(errs, fmt.Errorf("transfers.workers %d must be at least 1", cfg.Transfers.Workers))
	}

	if cfg.Transfers.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("transfers.max_attempts %d must be at least 1", cfg.Transfers.MaxAttempts))
	}

	if _, err := ParseSize(cfg.Transfers.BandwidthLimit); err != nil {
		errs = append(errs, fmt.Errorf("transfers.bandwidth_limit: %w", err))
	}

	errs = append(errs, validateDurations(cfg)...)
	errs = append(errs, validateRetryCodes(cfg)...)

	if !validLogLevels[cfg.Logging.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level %q must be one of debug, info, warn, error", cfg.Logging.LogLevel))
	}

	if !validLogFormats[cfg.Logging.LogFormat] {
		errs = append(errs, fmt.Errorf("logging.log_format %q must be one of auto, text, json", cfg.Logging.LogFormat))
	}

	return errors.Join(errs...)
}

func validateDurations(cfg *Config) []error {
	var errs []error

	if d, err := time.ParseDuration(cfg.Network.ConnectTimeout); err != nil {
		errs = append(errs, fmt.Errorf("network.connect_timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("network.connect_timeout %q must be positive", cfg.Network.ConnectTimeout))
	}

	// read_timeout 0 disables stall detection, so zero is allowed.
	if d, err := time.ParseDuration(cfg.Network.ReadTimeout); err != nil {
		errs = append(errs, fmt.Errorf("network.read_timeout: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("network.read_timeout %q must not be negative", cfg.Network.ReadTimeout))
	}

	return errs
}

func validateRetryCodes(cfg *Config) []error {
	var errs []error

	for _, c := range cfg.Retry.HTTPCodes {
		if c < 100 || c > 599 {
			errs = append(errs, fmt.Errorf("retry.http_codes: %d is not an HTTP status code", c))
		}
	}

	for _, c := range cfg.Retry.TransportCodes {
		if c < 0 {
			errs = append(errs, fmt.Errorf("retry.transport_codes: %d must not be negative", c))
		}
	}

	return errs
}

// ChunkSizeBytes returns the parsed chunk size. Only valid after Validate.
func (c *Config) ChunkSizeBytes() int64 {
	size, _ := ParseSize(c.Transfers.ChunkSize)
	return size
}

// ConnectTimeout returns the parsed connect timeout. Only valid after Validate.
func (c *Config) ConnectTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Network.ConnectTimeout)
	return d
}

// ReadTimeout returns the parsed stall window. Only valid after Validate.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Network.ReadTimeout)
	return d
}
