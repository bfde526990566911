package config

import (
	"os"
	"path/filepath"
)

const (
	appDirName     = "azblob-go"
	configFileName = "config.toml"
	journalDBName  = "journal.db"
)

// DefaultConfigPath returns the platform config file location,
// e.g. ~/.config/azblob-go/config.toml on Linux.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		// No resolvable home; fall back to the working directory.
		return configFileName
	}

	return filepath.Join(base, appDirName, configFileName)
}

// DefaultJournalPath returns the journal database location. It prefers
// XDG_STATE_HOME and falls back to the user config dir.
func DefaultJournalPath() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, appDirName, journalDBName)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return journalDBName
	}

	return filepath.Join(base, appDirName, journalDBName)
}
