//go:build !windows

package sink

func osVersion() (major, build uint32) { return 0, 0 }
