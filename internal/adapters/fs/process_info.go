package fs

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// DefaultProcessInfoFileName is where process metadata is written.
const DefaultProcessInfoFileName = "ProcessInfo.json"

// ProcessInfo is written at startup for external diagnostics.
type ProcessInfo struct {
	PID       int    `json:"pid"`
	StartTime string `json:"start_time"`
}

// CurrentProcessInfo describes the running process started at start.
func CurrentProcessInfo(start time.Time) ProcessInfo {
	return ProcessInfo{
		PID:       os.Getpid(),
		StartTime: start.Local().Format(time.DateTime),
	}
}

// WriteProcessInfo replaces path with info.
func WriteProcessInfo(fsys afero.Fs, path string, info ProcessInfo) error {
	if err := writeJSONAtomic(fsys, path, info); err != nil {
		return fmt.Errorf("write process info: %w", err)
	}
	return nil
}

// ReadProcessInfo reads process metadata written by WriteProcessInfo.
func ReadProcessInfo(fsys afero.Fs, path string) (ProcessInfo, error) {
	var info ProcessInfo
	if err := readJSON(fsys, path, &info); err != nil {
		return ProcessInfo{}, err
	}
	return info, nil
}
