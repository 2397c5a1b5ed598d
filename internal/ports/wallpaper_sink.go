package ports

import "context"

// WallpaperSink applies an image as the desktop background.
type WallpaperSink interface {
	// Apply sets path as wallpaper. A nil error means success.
	Apply(ctx context.Context, path string) error

	// Name identifies the mechanism in logs ("spi", "command", ...).
	Name() string
}
