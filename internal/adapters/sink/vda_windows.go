//go:build windows

package sink

import (
	"context"
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/bft-labs/wallrotate/internal/domain"
)

const (
	clsctxLocalServer       = 0x4
	coinitApartmentThreaded = 0x2
	sFalse                  = 0x1

	slotRelease      = 2
	slotQueryService = 3
)

var (
	ole32                   = windows.NewLazySystemDLL("ole32.dll")
	procCoInitializeEx      = ole32.NewProc("CoInitializeEx")
	procCoUninitialize      = ole32.NewProc("CoUninitialize")
	procCoCreateInstance    = ole32.NewProc("CoCreateInstance")
	combase                 = windows.NewLazySystemDLL("combase.dll")
	procWindowsCreateString = combase.NewProc("WindowsCreateString")
	procWindowsDeleteString = combase.NewProc("WindowsDeleteString")

	clsidImmersiveShell                = windows.GUID{Data1: 0xC2F03A33, Data2: 0x21F5, Data3: 0x47FA, Data4: [8]byte{0xB4, 0xBB, 0x15, 0x63, 0x62, 0xA2, 0xF2, 0x39}}
	clsidVirtualDesktopManagerInternal = windows.GUID{Data1: 0xC5E0CDCA, Data2: 0x7B6E, Data3: 0x41B2, Data4: [8]byte{0x9F, 0xC4, 0xD9, 0x39, 0x75, 0xCC, 0x46, 0x7B}}
	iidServiceProvider                 = windows.GUID{Data1: 0x6D5140C1, Data2: 0x7436, Data3: 0x11CE, Data4: [8]byte{0x80, 0x34, 0x00, 0xAA, 0x00, 0x60, 0x09, 0xFA}}
)

// comObject is the in-memory shape of a COM interface pointer.
type comObject struct {
	vtbl *[32]uintptr
}

func (o *comObject) call(slot int, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(o.vtbl[slot], append([]uintptr{uintptr(unsafe.Pointer(o))}, args...)...)
	return r
}

func (o *comObject) release() {
	o.call(slotRelease)
}

// VDASink sets the same wallpaper on every virtual desktop through the
// shell's virtual desktop manager.
type VDASink struct {
	layout vdaLayout
	iid    windows.GUID
}

// NewVDASink finds the virtual desktop manager layout exposed by this build.
func NewVDASink(build uint32) (*VDASink, error) {
	candidates := vdaLayoutsFor(build)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no known virtual desktop manager for build %d", domain.ErrSink, build)
	}

	var lastErr error
	for _, l := range candidates {
		iid, err := windows.GUIDFromString(l.iid)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSink, err)
		}
		err = withManager(iid, func(*comObject) error { return nil })
		if err == nil {
			return &VDASink{layout: l, iid: iid}, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Name returns the sink identifier.
func (*VDASink) Name() string { return "vda" }

// Apply sets path as the wallpaper of every virtual desktop.
func (s *VDASink) Apply(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return withManager(s.iid, func(mgr *comObject) error {
		h, err := newHString(path)
		if err != nil {
			return err
		}
		defer procWindowsDeleteString.Call(h)

		if hr := mgr.call(s.layout.slot, h); int32(hr) < 0 {
			return fmt.Errorf("%w: set wallpaper for all desktops: %w", domain.ErrSink, windows.Errno(hr))
		}
		return nil
	})
}

// withManager runs fn with the virtual desktop manager on a COM-initialized,
// locked thread and releases everything afterwards.
func withManager(iid windows.GUID, fn func(mgr *comObject) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hr, _, _ := procCoInitializeEx.Call(0, coinitApartmentThreaded)
	if int32(hr) < 0 {
		return fmt.Errorf("%w: CoInitializeEx: %w", domain.ErrSink, windows.Errno(hr))
	}
	if hr == 0 || hr == sFalse {
		defer procCoUninitialize.Call()
	}

	var shell *comObject
	hr, _, _ = procCoCreateInstance.Call(
		uintptr(unsafe.Pointer(&clsidImmersiveShell)),
		0,
		clsctxLocalServer,
		uintptr(unsafe.Pointer(&iidServiceProvider)),
		uintptr(unsafe.Pointer(&shell)),
	)
	if int32(hr) < 0 || shell == nil {
		return fmt.Errorf("%w: create immersive shell: %w", domain.ErrSink, windows.Errno(hr))
	}
	defer shell.release()

	var mgr *comObject
	hr = shell.call(slotQueryService,
		uintptr(unsafe.Pointer(&clsidVirtualDesktopManagerInternal)),
		uintptr(unsafe.Pointer(&iid)),
		uintptr(unsafe.Pointer(&mgr)),
	)
	if int32(hr) < 0 || mgr == nil {
		return fmt.Errorf("%w: query virtual desktop manager: %w", domain.ErrSink, windows.Errno(hr))
	}
	defer mgr.release()

	return fn(mgr)
}

func newHString(s string) (uintptr, error) {
	u, err := windows.UTF16FromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrSink, err)
	}
	var h uintptr
	hr, _, _ := procWindowsCreateString.Call(
		uintptr(unsafe.Pointer(&u[0])),
		uintptr(len(u)-1),
		uintptr(unsafe.Pointer(&h)),
	)
	if int32(hr) < 0 {
		return 0, fmt.Errorf("%w: WindowsCreateString: %w", domain.ErrSink, windows.Errno(hr))
	}
	return h, nil
}
