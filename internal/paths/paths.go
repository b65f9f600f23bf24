// Package paths centralizes file and directory names used across Mark.
// All data directory file names are defined here as the single source of truth.
package paths

import (
	"os"
	"path/filepath"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile    = "daemon.pid"
	ConfigFile = "config.toml"
	LogFile    = "daemon.log"
	EnvFile    = ".env"

	// LegacySettingsFile is the JSON-with-comments settings file used by the
	// original Mark script. It is imported once when no config.toml exists.
	LegacySettingsFile = "settings.jsonc"
)

const (
	BinaryName = "mark"
	DataDirRel = ".mark" // relative to $HOME
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// Default returns the DataDir under the user's home directory, or ./.mark
// when the home directory cannot be determined.
func Default() DataDir {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDir{Root: filepath.Join(".", DataDirRel)}
	}
	return DataDir{Root: filepath.Join(home, DataDirRel)}
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Env returns the full path to the optional .env token file.
func (d DataDir) Env() string { return filepath.Join(d.Root, EnvFile) }

// LegacySettings returns the full path to the legacy settings.jsonc file.
func (d DataDir) LegacySettings() string { return filepath.Join(d.Root, LegacySettingsFile) }
