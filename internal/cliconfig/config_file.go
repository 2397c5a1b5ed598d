package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WorkDir       string   `toml:"work_dir"`
	StateFile     string   `toml:"state_file"`
	ConfigFile    string   `toml:"config_file"`
	TimerCap      string   `toml:"timer_cap"`
	WatchDebounce string   `toml:"watch_debounce"`
	Sink          string   `toml:"sink"`
	SinkCommand   []string `toml:"sink_command"`
	HistoryDB     string   `toml:"history_db"`
	MetricsAddr   string   `toml:"metrics_addr"`
	LogFile       string   `toml:"log_file"`
	LogLevel      string   `toml:"log_level"`
	Once          *bool    `toml:"once"`
}

// LoadFileConfig reads and parses a TOML settings file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default settings file path.
// Returns ~/.wallrotate/settings.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".wallrotate", "settings.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("work-dir", fc.WorkDir, &cfg.WorkDir)
	s.setString("state-file", fc.StateFile, &cfg.StateFile)
	s.setString("config-file", fc.ConfigFile, &cfg.ConfigFile)
	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setStrings("sink-command", fc.SinkCommand, &cfg.SinkCommand)
	s.setString("history-db", fc.HistoryDB, &cfg.HistoryDB)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("timer-cap", fc.TimerCap, &cfg.TimerCap); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
