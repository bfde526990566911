package config

import "os"

// Environment variable names. Credential material is environment-only
// so it never lands in a config file on disk.
const (
	EnvConfig       = "AZBLOB_CONFIG"
	EnvClientSecret = "AZBLOB_CLIENT_SECRET"
	EnvRefreshToken = "AZBLOB_REFRESH_TOKEN"
	EnvBearerToken  = "AZBLOB_BEARER_TOKEN"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath   string // AZBLOB_CONFIG: override config file path
	ClientSecret string // AZBLOB_CLIENT_SECRET: client_credentials flow
	RefreshToken string // AZBLOB_REFRESH_TOKEN: refresh_token flow
	BearerToken  string // AZBLOB_BEARER_TOKEN: pre-acquired access token
}

// ReadEnvOverrides reads environment variables and returns any
// overrides found. This does not modify the Config; callers apply the
// relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		ClientSecret: os.Getenv(EnvClientSecret),
		RefreshToken: os.Getenv(EnvRefreshToken),
		BearerToken:  os.Getenv(EnvBearerToken),
	}
}
