package cliconfig

import "fmt"

// Load fills cfg from the settings file at path (DefaultConfigPath when
// empty, skipped when missing) and then the environment, leaving flags
// recorded in changed untouched. It validates the result.
func Load(cfg *Config, path string, changed map[string]bool) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return fmt.Errorf("apply settings: %w", err)
		}
	}

	if err := ApplyEnvConfig(cfg, changed); err != nil {
		return fmt.Errorf("apply env: %w", err)
	}

	return cfg.Validate()
}
