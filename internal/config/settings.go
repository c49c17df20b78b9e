// Package config loads and persists the application settings: permission
// rules, the active model, and the context window budget.
package config

const (
	// SettingsDir is the project-local directory holding settings and prompts.
	SettingsDir = ".loom"
	// SettingsFile is the settings file name inside SettingsDir.
	SettingsFile = "settings.json"

	defaultModel         = "gemini-2.5-flash"
	defaultContextWindow = 128_000
)

// Permissions holds the ordered permission rule lists in their persisted
// text form ("read_file", "run_shell_command(uv:*)").
type Permissions struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// Settings is the whole persisted configuration.
type Settings struct {
	Permissions       Permissions `json:"permissions"`
	Model             string      `json:"model"`
	ContextWindowSize int         `json:"context_window_size"`
}

// DefaultSettings returns the configuration used when no settings file
// exists or the file cannot be parsed.
func DefaultSettings() Settings {
	return Settings{
		Permissions: Permissions{
			Allow: []string{},
			Deny:  []string{},
		},
		Model:             defaultModel,
		ContextWindowSize: defaultContextWindow,
	}
}
