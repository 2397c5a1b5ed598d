package domain

import "errors"

// Error kinds. Concrete errors wrap one of these so callers can classify
// them with errors.Is while the cause stays in the message.
var (
	// ErrStorage is returned when the state or config record cannot be read,
	// parsed or written.
	ErrStorage = errors.New("wallrotate: storage error")

	// ErrEmptyPool is returned when no candidate image exists.
	ErrEmptyPool = errors.New("wallrotate: empty image pool")

	// ErrSink is returned when the wallpaper could not be applied.
	ErrSink = errors.New("wallrotate: sink rejected image")

	// ErrNotification is returned when a change subscription fails.
	ErrNotification = errors.New("wallrotate: change notification failed")
)

// Lifecycle errors.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("wallrotate: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("wallrotate: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("wallrotate: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("wallrotate: invalid configuration")
)
