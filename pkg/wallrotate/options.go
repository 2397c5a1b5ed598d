package wallrotate

import (
	"time"

	"github.com/spf13/afero"

	"github.com/bft-labs/wallrotate/internal/app"
	"github.com/bft-labs/wallrotate/internal/ports"
	"github.com/bft-labs/wallrotate/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Collaborators that can be replaced through options.
type (
	// WallpaperSink applies an image as the desktop background.
	WallpaperSink = ports.WallpaperSink

	// ImagePool lists candidate images for a set of directories.
	ImagePool = ports.ImagePool

	// ChangeNotifier reports changes of the state and config records.
	ChangeNotifier = ports.ChangeNotifier
	ChangeBatch    = ports.ChangeBatch
	ChangeEvent    = ports.ChangeEvent

	// Rand is the randomness source used to pick an image.
	Rand = app.Rand
)

// Option configures optional behavior of a Rotator.
type Option func(*options)

type options struct {
	logger       Logger
	sink         WallpaperSink
	pool         ImagePool
	notifier     ChangeNotifier
	fs           afero.Fs
	eventHandler EventHandler
	plugins      []Plugin
	clock        func() time.Time
	rand         Rand
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		fs:     afero.NewOsFs(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSink replaces the platform sink selected from Config.Sink.
func WithSink(sink WallpaperSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithImagePool replaces the directory-walking image pool.
func WithImagePool(pool ImagePool) Option {
	return func(o *options) {
		o.pool = pool
	}
}

// WithChangeNotifier replaces the fsnotify-based change notifier.
func WithChangeNotifier(n ChangeNotifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithFs sets the filesystem used for the records and the image pool.
// Default: the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEventHandler sets a handler for rotator events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the Rotator starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithClock sets the time source used by the interval gate.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithRand sets the randomness source used for selection.
func WithRand(r Rand) Option {
	return func(o *options) {
		o.rand = r
	}
}
