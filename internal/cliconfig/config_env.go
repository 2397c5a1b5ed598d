package cliconfig

import (
	"fmt"
	"os"

	"github.com/mattn/go-shellwords"
)

// ApplyEnvConfig applies configuration from environment variables (WALLROTATE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("work-dir", os.Getenv("WALLROTATE_WORK_DIR"), &cfg.WorkDir)
	s.setString("state-file", os.Getenv("WALLROTATE_STATE_FILE"), &cfg.StateFile)
	s.setString("config-file", os.Getenv("WALLROTATE_CONFIG_FILE"), &cfg.ConfigFile)
	s.setString("sink", os.Getenv("WALLROTATE_SINK"), &cfg.Sink)
	s.setString("history-db", os.Getenv("WALLROTATE_HISTORY_DB"), &cfg.HistoryDB)
	s.setString("metrics-addr", os.Getenv("WALLROTATE_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-file", os.Getenv("WALLROTATE_LOG_FILE"), &cfg.LogFile)
	s.setString("log-level", os.Getenv("WALLROTATE_LOG_LEVEL"), &cfg.LogLevel)
	s.setBoolFromString("once", os.Getenv("WALLROTATE_ONCE"), &cfg.Once)

	argv, err := SplitCommand(os.Getenv("WALLROTATE_SINK_COMMAND"))
	if err != nil {
		return fmt.Errorf("parse sink-command: %w", err)
	}
	s.setStrings("sink-command", argv, &cfg.SinkCommand)

	if err := s.setDuration("timer-cap", os.Getenv("WALLROTATE_TIMER_CAP"), &cfg.TimerCap); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", os.Getenv("WALLROTATE_WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}

	return nil
}

// SplitCommand splits a command line with shell quoting rules. Quotes keep
// arguments with spaces together; variables and backquotes are left as is.
// A blank line yields nil.
func SplitCommand(s string) ([]string, error) {
	p := shellwords.NewParser()
	argv, err := p.Parse(s)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, nil
	}
	return argv, nil
}
