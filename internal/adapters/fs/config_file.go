package fs

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// DefaultConfigFileName matches the record name used by earlier releases.
const DefaultConfigFileName = "config.json"

type configRecord struct {
	Interval    int      `json:"interval"`
	Directories []string `json:"directories"`
}

// ConfigFile implements ports.ConfigSource using a JSON file.
type ConfigFile struct {
	fs   afero.Fs
	path string
}

// NewConfigFile creates a ConfigFile for path on fsys.
func NewConfigFile(fsys afero.Fs, path string) *ConfigFile {
	return &ConfigFile{fs: fsys, path: path}
}

// Load reads and validates the record. Nothing is cached.
func (c *ConfigFile) Load(ctx context.Context) (domain.RotationConfig, error) {
	var rec configRecord
	if err := readJSON(c.fs, c.path, &rec); err != nil {
		return domain.RotationConfig{}, fmt.Errorf("%w: load config: %w", domain.ErrStorage, err)
	}

	cfg := domain.RotationConfig{
		IntervalSeconds: rec.Interval,
		Directories:     rec.Directories,
	}
	if cfg.Directories == nil {
		cfg.Directories = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return domain.RotationConfig{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return cfg, nil
}

// EnsureDefault writes the default record if none exists.
// Returns true when a record was created.
func (c *ConfigFile) EnsureDefault(ctx context.Context) (bool, error) {
	ok, err := fileExists(c.fs, c.path)
	if err != nil {
		return false, fmt.Errorf("%w: stat config: %w", domain.ErrStorage, err)
	}
	if ok {
		return false, nil
	}

	def := domain.DefaultConfig()
	rec := configRecord{Interval: def.IntervalSeconds, Directories: def.Directories}
	if err := writeJSONAtomic(c.fs, c.path, rec); err != nil {
		return false, fmt.Errorf("%w: write default config: %w", domain.ErrStorage, err)
	}
	return true, nil
}

// Path returns the full path to the config file.
func (c *ConfigFile) Path() string {
	return c.path
}
