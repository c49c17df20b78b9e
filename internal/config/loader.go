package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads settings from <baseDir>/.loom/settings.json. A missing or
// malformed file yields the defaults; settings are never a reason to refuse
// to start.
func Load(baseDir string) Settings {
	data, err := os.ReadFile(settingsPath(baseDir))
	if err != nil {
		return DefaultSettings()
	}

	// Unmarshal over the defaults so present keys override them (including
	// explicit zero values) and missing keys keep their defaults.
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings()
	}
	if settings.Permissions.Allow == nil {
		settings.Permissions.Allow = []string{}
	}
	if settings.Permissions.Deny == nil {
		settings.Permissions.Deny = []string{}
	}
	return settings
}

// Save writes settings to <baseDir>/.loom/settings.json, creating the
// directory if needed. Writes are whole-file overwrites.
func Save(baseDir string, settings Settings) error {
	dir := filepath.Join(baseDir, SettingsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(settingsPath(baseDir), data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func settingsPath(baseDir string) string {
	return filepath.Join(baseDir, SettingsDir, SettingsFile)
}
