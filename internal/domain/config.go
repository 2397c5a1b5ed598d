package domain

import (
	"fmt"
	"time"
)

// DefaultIntervalSeconds is the rotation interval written on first run.
const DefaultIntervalSeconds = 3600

// RotationConfig is the operator-owned configuration record.
type RotationConfig struct {
	// IntervalSeconds is the minimum time between two rotations.
	IntervalSeconds int

	// Directories are scanned recursively for candidate images.
	Directories []string
}

// DefaultConfig returns the record written on first run.
func DefaultConfig() RotationConfig {
	return RotationConfig{
		IntervalSeconds: DefaultIntervalSeconds,
		Directories:     []string{},
	}
}

// Interval returns IntervalSeconds as a duration.
func (c RotationConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Validate checks the record's invariants.
func (c RotationConfig) Validate() error {
	if c.IntervalSeconds < 1 {
		return fmt.Errorf("%w: interval must be at least 1 second, got %d", ErrInvalidConfig, c.IntervalSeconds)
	}
	return nil
}
