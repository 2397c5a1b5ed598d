package sink

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/pkg/log"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{" SPI ", ModeSPI, false},
		{"command", ModeCommand, false},
		{"vda", ModeVDA, false},
		{"pyvda", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("ParseMode(%q) error = %v, want ErrInvalidConfig", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlatform_PerDesktopWallpaper(t *testing.T) {
	tests := []struct {
		p    Platform
		want bool
	}{
		{Platform{OS: "windows", Major: 10, Build: 19045}, false},
		{Platform{OS: "windows", Major: 10, Build: 21313}, true},
		{Platform{OS: "windows", Major: 10, Build: 22631}, true},
		{Platform{OS: "windows", Major: 6, Build: 22000}, false},
		{Platform{OS: "linux"}, false},
	}
	for _, tt := range tests {
		if got := tt.p.PerDesktopWallpaper(); got != tt.want {
			t.Errorf("%v.PerDesktopWallpaper() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestChoose(t *testing.T) {
	win10 := Platform{OS: "windows", Major: 10, Build: 19045}
	win11 := Platform{OS: "windows", Major: 10, Build: 22631}
	custom := []string{"set-bg", "--all", "{path}"}

	tests := []struct {
		name     string
		opts     Options
		p        Platform
		wantMode Mode
		wantArgv []string
		wantWarn bool
		wantFall Mode
		wantErr  bool
	}{
		{name: "auto old windows", opts: Options{Mode: ModeAuto}, p: win10, wantMode: ModeSPI},
		{name: "auto new windows prefers all desktops", opts: Options{Mode: ModeAuto}, p: win11, wantMode: ModeVDA, wantFall: ModeSPI},
		{name: "vda new windows", opts: Options{Mode: ModeVDA}, p: win11, wantMode: ModeVDA},
		{name: "vda old windows", opts: Options{Mode: ModeVDA}, p: win10, wantErr: true},
		{name: "vda off windows", opts: Options{Mode: ModeVDA}, p: Platform{OS: "linux"}, wantErr: true},
		{name: "spi new windows warns", opts: Options{Mode: ModeSPI}, p: win11, wantMode: ModeSPI, wantWarn: true},
		{name: "auto new windows with command", opts: Options{Mode: ModeAuto, Command: custom}, p: win11, wantMode: ModeCommand, wantArgv: custom},
		{name: "auto linux", opts: Options{}, p: Platform{OS: "linux"}, wantMode: ModeCommand, wantArgv: DefaultCommand("linux")},
		{name: "auto darwin", opts: Options{}, p: Platform{OS: "darwin"}, wantMode: ModeCommand, wantArgv: DefaultCommand("darwin")},
		{name: "auto unknown os", opts: Options{}, p: Platform{OS: "plan9"}, wantErr: true},
		{name: "spi off windows", opts: Options{Mode: ModeSPI}, p: Platform{OS: "linux"}, wantErr: true},
		{name: "spi windows", opts: Options{Mode: ModeSPI}, p: win10, wantMode: ModeSPI},
		{name: "command default", opts: Options{Mode: ModeCommand}, p: Platform{OS: "linux"}, wantMode: ModeCommand, wantArgv: DefaultCommand("linux")},
		{name: "command missing on windows", opts: Options{Mode: ModeCommand}, p: win11, wantErr: true},
		{name: "unknown mode", opts: Options{Mode: "bogus"}, p: win10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := choose(tt.opts, tt.p)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidConfig) {
					t.Fatalf("choose() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("choose() error = %v", err)
			}
			if c.mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", c.mode, tt.wantMode)
			}
			if strings.Join(c.argv, " ") != strings.Join(tt.wantArgv, " ") {
				t.Errorf("argv = %v, want %v", c.argv, tt.wantArgv)
			}
			if (c.warning != "") != tt.wantWarn {
				t.Errorf("warning = %q, wantWarn %v", c.warning, tt.wantWarn)
			}
			if c.fallback != tt.wantFall {
				t.Errorf("fallback = %q, want %q", c.fallback, tt.wantFall)
			}
		})
	}
}

func TestVDALayoutsFor(t *testing.T) {
	tests := []struct {
		build uint32
		want  []string
	}{
		{21313, nil},
		{22000, []string{"{B2F925B9-5A0F-4D2E-9F4D-2B1507593C10}"}},
		{22621, []string{"{A3175F2D-239C-4BD2-8AA0-EEBA8B0B138E}", "{B2F925B9-5A0F-4D2E-9F4D-2B1507593C10}"}},
		{26100, []string{"{53F5CA0B-158F-4124-900C-057158060B27}", "{A3175F2D-239C-4BD2-8AA0-EEBA8B0B138E}", "{B2F925B9-5A0F-4D2E-9F4D-2B1507593C10}"}},
	}
	for _, tt := range tests {
		var got []string
		for _, l := range vdaLayoutsFor(tt.build) {
			got = append(got, l.iid)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("vdaLayoutsFor(%d) = %v, want %v", tt.build, got, tt.want)
		}
	}
}

// warnLogger records warning messages.
type warnLogger struct {
	log.NoopLogger
	warnings []string
}

func (l *warnLogger) Warn(msg string, fields ...log.Field) {
	l.warnings = append(l.warnings, msg)
}

func TestNew_AllDesktopsFallsBackToSPI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exercises the fallback path with the non-windows stubs")
	}
	logger := &warnLogger{}
	win11 := Platform{OS: "windows", Major: 10, Build: 22631}

	_, err := New(Options{Mode: ModeAuto}, win11, logger)
	if err == nil {
		t.Fatal("New() succeeded without a windows sink")
	}
	if len(logger.warnings) != 2 {
		t.Fatalf("warnings = %v, want fallback and per-desktop warnings", logger.warnings)
	}
	if !strings.Contains(logger.warnings[0], "falling back") {
		t.Errorf("first warning = %q", logger.warnings[0])
	}
	if logger.warnings[1] != perDesktopWarning {
		t.Errorf("second warning = %q", logger.warnings[1])
	}
}

func TestCommandSink_Args(t *testing.T) {
	s, err := NewCommandSink([]string{"feh", "--bg-fill"}, log.NewNoopLogger())
	if err != nil {
		t.Fatal(err)
	}
	got := s.Args("/pics/a.jpg")
	want := []string{"feh", "--bg-fill", "/pics/a.jpg"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Args() = %v, want %v", got, want)
	}
	if s.Name() != "command:feh" {
		t.Errorf("Name() = %q", s.Name())
	}

	s, err = NewCommandSink([]string{"gsettings", "set", "k", "file://{path}"}, log.NewNoopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Args("/p.png")[3]; got != "file:///p.png" {
		t.Errorf("placeholder arg = %q", got)
	}

	if _, err := NewCommandSink(nil, log.NewNoopLogger()); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("NewCommandSink(nil) error = %v, want ErrInvalidConfig", err)
	}
}

func TestCommandSink_Apply(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "applied")

	s, err := NewCommandSink([]string{"sh", "-c", `printf '%s' "$1" > ` + marker, "sh", "{path}"}, log.NewNoopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(context.Background(), "/pics/a.jpg"); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	data, err := os.ReadFile(marker)
	if err != nil || string(data) != "/pics/a.jpg" {
		t.Fatalf("command saw %q (%v), want /pics/a.jpg", data, err)
	}

	failing, err := NewCommandSink([]string{"sh", "-c", "echo no display >&2; exit 3", "sh", "{path}"}, log.NewNoopLogger())
	if err != nil {
		t.Fatal(err)
	}
	err = failing.Apply(context.Background(), "/pics/a.jpg")
	if !errors.Is(err, domain.ErrSink) {
		t.Fatalf("Apply() error = %v, want ErrSink", err)
	}
	if !strings.Contains(err.Error(), "no display") {
		t.Errorf("error %q does not carry command output", err)
	}
}
