// Package sink selects and implements the wallpaper sink for the running
// platform.
package sink

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// Mode names a sink strategy.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeSPI     Mode = "spi"
	ModeVDA     Mode = "vda"
	ModeCommand Mode = "command"
)

// ParseMode parses a mode name. The empty string means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeSPI, ModeVDA, ModeCommand:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown sink %q (want auto, spi, vda or command)", domain.ErrInvalidConfig, s)
	}
}

// VirtualDesktopBuild is the first Windows build with per-virtual-desktop
// wallpapers. From this build on SystemParametersInfo only paints the
// current desktop.
const VirtualDesktopBuild = 21313

// Platform describes the host as far as sink selection is concerned.
type Platform struct {
	OS    string
	Major uint32
	Build uint32
}

// Detect returns the platform of the running process.
func Detect() Platform {
	p := Platform{OS: runtime.GOOS}
	p.Major, p.Build = osVersion()
	return p
}

// PerDesktopWallpaper reports whether the platform keeps a separate
// wallpaper per virtual desktop.
func (p Platform) PerDesktopWallpaper() bool {
	return p.OS == "windows" && p.Major >= 10 && p.Build >= VirtualDesktopBuild
}

func (p Platform) String() string {
	if p.Major == 0 && p.Build == 0 {
		return p.OS
	}
	return fmt.Sprintf("%s %d (build %d)", p.OS, p.Major, p.Build)
}

// Options selects a sink.
type Options struct {
	Mode Mode

	// Command is the argv run by the command sink. Every "{path}" in it is
	// replaced with the image path. Empty means the platform default.
	Command []string
}

// DefaultCommand returns the built-in command for platforms without a native
// sink, or nil.
func DefaultCommand(goos string) []string {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"gsettings", "set", "org.gnome.desktop.background", "picture-uri", "file://" + PathPlaceholder}
	case "darwin":
		return []string{"osascript", "-e",
			`tell application "System Events" to tell every desktop to set picture to "` + PathPlaceholder + `"`}
	default:
		return nil
	}
}

// choice is the outcome of sink selection before anything is constructed.
// fallback is tried when the preferred sink cannot be constructed.
type choice struct {
	mode     Mode
	argv     []string
	warning  string
	fallback Mode
}

func choose(opts Options, p Platform) (choice, error) {
	switch opts.Mode {
	case ModeSPI:
		if p.OS != "windows" {
			return choice{}, fmt.Errorf("%w: spi sink is only available on windows, not %s", domain.ErrInvalidConfig, p.OS)
		}
		c := choice{mode: ModeSPI}
		if p.PerDesktopWallpaper() {
			c.warning = perDesktopWarning
		}
		return c, nil

	case ModeVDA:
		if !p.PerDesktopWallpaper() {
			return choice{}, fmt.Errorf("%w: vda sink needs windows build %d or later, not %s", domain.ErrInvalidConfig, VirtualDesktopBuild, p)
		}
		return choice{mode: ModeVDA}, nil

	case ModeCommand:
		argv := opts.Command
		if len(argv) == 0 {
			argv = DefaultCommand(p.OS)
		}
		if len(argv) == 0 {
			return choice{}, fmt.Errorf("%w: command sink needs sink_command on %s", domain.ErrInvalidConfig, p.OS)
		}
		return choice{mode: ModeCommand, argv: argv}, nil

	case ModeAuto, "":
		if len(opts.Command) > 0 {
			return choice{mode: ModeCommand, argv: opts.Command}, nil
		}
		if p.PerDesktopWallpaper() {
			return choice{mode: ModeVDA, fallback: ModeSPI}, nil
		}
		if p.OS == "windows" {
			return choice{mode: ModeSPI}, nil
		}
		if argv := DefaultCommand(p.OS); argv != nil {
			return choice{mode: ModeCommand, argv: argv}, nil
		}
		return choice{}, fmt.Errorf("%w: no wallpaper sink for %s, set sink_command", domain.ErrInvalidConfig, p.OS)

	default:
		return choice{}, fmt.Errorf("%w: unknown sink %q", domain.ErrInvalidConfig, opts.Mode)
	}
}

const perDesktopWarning = "this windows build keeps one wallpaper per virtual desktop; only the current desktop changes"

// New picks the sink for platform p. It is called once at startup.
func New(opts Options, p Platform, logger ports.Logger) (ports.WallpaperSink, error) {
	c, err := choose(opts, p)
	if err != nil {
		return nil, err
	}
	if c.warning != "" {
		logger.Warn(c.warning, ports.String("platform", p.String()))
	}

	s, err := build(c, p, logger)
	if err == nil || c.fallback == "" {
		return s, err
	}

	logger.Warn("all-desktops wallpaper API unavailable, falling back",
		ports.String("fallback", string(c.fallback)),
		ports.String("platform", p.String()),
		ports.Err(err),
	)
	if c.fallback == ModeSPI && p.PerDesktopWallpaper() {
		logger.Warn(perDesktopWarning, ports.String("platform", p.String()))
	}
	return build(choice{mode: c.fallback}, p, logger)
}

func build(c choice, p Platform, logger ports.Logger) (ports.WallpaperSink, error) {
	switch c.mode {
	case ModeVDA:
		s, err := NewVDASink(p.Build)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ModeSPI:
		s, err := NewSPISink()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := NewCommandSink(c.argv, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
