package wallrotate

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/bft-labs/wallrotate/internal/adapters/fs"
	"github.com/bft-labs/wallrotate/internal/adapters/sink"
	"github.com/bft-labs/wallrotate/internal/adapters/watch"
	"github.com/bft-labs/wallrotate/internal/app"
	"github.com/bft-labs/wallrotate/internal/domain"
)

// Config holds the configuration for a Rotator.
type Config struct {
	// WorkDir holds the state and config records unless their paths are
	// set explicitly. Required.
	WorkDir string

	// StateFile is the rotation state record.
	// Default: WorkDir/state.json
	StateFile string

	// ConfigFile is the operator-owned config record.
	// Default: WorkDir/config.json
	ConfigFile string

	// TimerCap bounds the timer period.
	// Default: 600s
	TimerCap time.Duration

	// WatchDebounce coalesces bursts of record changes.
	// Default: 100ms
	WatchDebounce time.Duration

	// DisableWatch turns off the change notification producer. The timer
	// still drives rotations.
	DisableWatch bool

	// Sink selects the wallpaper sink: "auto", "spi", "vda" or "command".
	// Ignored when WithSink is used.
	Sink string

	// SinkCommand is the argv for the command sink; "{path}" is replaced
	// with the image path.
	SinkCommand []string
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.StateFile == "" && c.WorkDir != "" {
		c.StateFile = filepath.Join(c.WorkDir, fs.DefaultStateFileName)
	}
	if c.ConfigFile == "" && c.WorkDir != "" {
		c.ConfigFile = filepath.Join(c.WorkDir, fs.DefaultConfigFileName)
	}
	if c.TimerCap <= 0 {
		c.TimerCap = app.DefaultTimerCap
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = watch.DefaultDebounce
	}
	if c.Sink == "" {
		c.Sink = string(sink.ModeAuto)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.StateFile == "" || c.ConfigFile == "" {
		return fmt.Errorf("%w: work dir or both record paths are required", domain.ErrInvalidConfig)
	}
	if filepath.Clean(c.StateFile) == filepath.Clean(c.ConfigFile) {
		return fmt.Errorf("%w: state and config records must be different files", domain.ErrInvalidConfig)
	}
	if _, err := sink.ParseMode(c.Sink); err != nil {
		return err
	}
	return nil
}
