package wallrotate

import "github.com/bft-labs/wallrotate/internal/domain"

// Errors reported by a Rotator and carried in failed outcomes.
// Check them with errors.Is.
var (
	ErrStorage         = domain.ErrStorage
	ErrEmptyPool       = domain.ErrEmptyPool
	ErrSink            = domain.ErrSink
	ErrNotification    = domain.ErrNotification
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)
