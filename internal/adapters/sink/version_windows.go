//go:build windows

package sink

import "golang.org/x/sys/windows"

// osVersion reads the real version through RtlGetVersion, which is not
// subject to manifest-based version lies.
func osVersion() (major, build uint32) {
	v := windows.RtlGetVersion()
	return v.MajorVersion, v.BuildNumber
}
