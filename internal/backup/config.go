package backup

import (
	"encoding/json"
	"os"
)

// Config is the persisted backup configuration. It lives in its own
// JSON file (not the process env) because the admin UI mutates it at
// runtime and it must survive restarts.
type Config struct {
	AutoBackupEnabled   bool   `json:"auto_backup_enabled"`
	BackupIntervalHours int    `json:"backup_interval_hours"`
	MaxBackups          int    `json:"max_backups"`
	BackupDatabase      bool   `json:"backup_database"`
	BackupUploads       bool   `json:"backup_uploads"`
	BackupConfig        bool   `json:"backup_config"`
	CompressionEnabled  bool   `json:"compression_enabled"`
	LastBackup          string `json:"last_backup"` // RFC3339; empty until the first backup
}

// DefaultConfig returns the settings used for a fresh install and to
// fill in keys missing from an older config file.
func DefaultConfig() Config {
	return Config{
		AutoBackupEnabled:   true,
		BackupIntervalHours: 6,
		MaxBackups:          10,
		BackupDatabase:      true,
		BackupUploads:       true,
		BackupConfig:        true,
		CompressionEnabled:  true,
	}
}

// LoadConfig reads the config file at path, merging defaults over any
// missing keys. A missing or unreadable file yields the defaults. The
// merged result is written back so the file on disk is always complete.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		// Unmarshal over the defaults: keys present in the file win,
		// absent keys keep their default. A corrupt file falls back
		// to the defaults entirely.
		if err := json.Unmarshal(data, &cfg); err != nil {
			cfg = DefaultConfig()
		}
	}

	if err := SaveConfig(path, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig persists the config as indented JSON.
func SaveConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
