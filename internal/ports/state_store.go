package ports

import (
	"context"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// StateStore owns the persisted rotation state.
// Implementations must not cache: every Load re-reads the backing medium.
type StateStore interface {
	// Load reads the record. It returns an error wrapping domain.ErrStorage
	// when the record is absent or malformed.
	Load(ctx context.Context) (domain.RotationState, error)

	// Save fully replaces the record. Readers must never observe a partially
	// written record (write to a temp file, then rename).
	Save(ctx context.Context, state domain.RotationState) error
}

// ConfigSource reads the operator-owned configuration record.
type ConfigSource interface {
	// Load reads and validates the record. It returns an error wrapping
	// domain.ErrStorage when the record is absent, malformed or invalid.
	Load(ctx context.Context) (domain.RotationConfig, error)
}
