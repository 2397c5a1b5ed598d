package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/wallrotate/internal/adapters/fs"
	"github.com/bft-labs/wallrotate/internal/adapters/sink"
	"github.com/bft-labs/wallrotate/internal/adapters/watch"
	"github.com/bft-labs/wallrotate/internal/app"
)

// DefaultLogFileName is created in the work directory unless log_file says
// otherwise.
const DefaultLogFileName = "wallrotate.log"

// NoLogFile disables the log file.
const NoLogFile = "-"

// Config holds CLI configuration for wallrotate.
type Config struct {
	WorkDir    string
	StateFile  string
	ConfigFile string

	TimerCap      time.Duration
	WatchDebounce time.Duration

	Sink        string
	SinkCommand []string

	HistoryDB   string
	MetricsAddr string

	LogFile  string
	LogLevel string

	Once bool
}

// DefaultWorkDir returns $HOME/.wallrotate, or the current directory when
// the home directory is unknown.
func DefaultWorkDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".wallrotate")
	}
	return "."
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		WorkDir:       DefaultWorkDir(),
		TimerCap:      app.DefaultTimerCap,
		WatchDebounce: watch.DefaultDebounce,
		Sink:          string(sink.ModeAuto),
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("work-dir is required")
	}

	if c.StateFile == "" {
		c.StateFile = filepath.Join(c.WorkDir, fs.DefaultStateFileName)
	}
	if c.ConfigFile == "" {
		c.ConfigFile = filepath.Join(c.WorkDir, fs.DefaultConfigFileName)
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.WorkDir, DefaultLogFileName)
	}
	if c.StateFile == c.ConfigFile {
		return fmt.Errorf("state file and config file must differ: %s", c.StateFile)
	}

	if c.TimerCap <= 0 {
		return fmt.Errorf("timer cap must be positive")
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("watch debounce must be positive")
	}

	mode, err := sink.ParseMode(c.Sink)
	if err != nil {
		return err
	}
	c.Sink = string(mode)

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	return nil
}

// LogFileEnabled reports whether a log file should be written.
func (c *Config) LogFileEnabled() bool {
	return c.LogFile != "" && c.LogFile != NoLogFile
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
