// Package ports defines the interfaces (ports) that connect the rotation
// engine to infrastructure adapters.
//
// # Port Interfaces
//
//   - [StateStore]: persists and loads the rotation state record
//   - [ConfigSource]: reads the operator-owned rotation config record
//   - [ImagePool]: lists the current candidate images
//   - [WallpaperSink]: applies an image to the desktop
//   - [ChangeNotifier]: reports changes to the config and state records
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters under internal/adapters implement them with the file system,
// fsnotify and OS wallpaper calls.
package ports
