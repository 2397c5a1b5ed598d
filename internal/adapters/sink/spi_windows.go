//go:build windows

package sink

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/bft-labs/wallrotate/internal/domain"
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

// SPISink sets the wallpaper through SystemParametersInfoW. On builds with
// per-desktop wallpapers it only changes the current virtual desktop.
type SPISink struct{}

// NewSPISink returns the SystemParametersInfo sink.
func NewSPISink() (*SPISink, error) {
	if err := procSystemParametersInfo.Find(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSink, err)
	}
	return &SPISink{}, nil
}

// Name returns the sink identifier.
func (*SPISink) Name() string { return "spi" }

// Apply sets path as the desktop wallpaper.
func (*SPISink) Apply(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSink, err)
	}
	r, _, callErr := procSystemParametersInfo.Call(
		spiSetDeskWallpaper,
		0,
		uintptr(unsafe.Pointer(p)),
		spifUpdateIniFile|spifSendChange,
	)
	if r == 0 {
		return fmt.Errorf("%w: SystemParametersInfoW: %w", domain.ErrSink, callErr)
	}
	return nil
}
