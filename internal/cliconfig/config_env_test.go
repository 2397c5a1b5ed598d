package cliconfig

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"WALLROTATE_WORK_DIR":       "/env/work",
				"WALLROTATE_STATE_FILE":     "/env/state.json",
				"WALLROTATE_CONFIG_FILE":    "/env/config.json",
				"WALLROTATE_TIMER_CAP":      "1m",
				"WALLROTATE_WATCH_DEBOUNCE": "50ms",
				"WALLROTATE_SINK":           "command",
				"WALLROTATE_SINK_COMMAND":   "feh --bg-scale {path}",
				"WALLROTATE_HISTORY_DB":     "/env/history.db",
				"WALLROTATE_METRICS_ADDR":   ":9200",
				"WALLROTATE_LOG_FILE":       "-",
				"WALLROTATE_LOG_LEVEL":      "debug",
				"WALLROTATE_ONCE":           "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				WorkDir:       "/env/work",
				StateFile:     "/env/state.json",
				ConfigFile:    "/env/config.json",
				TimerCap:      time.Minute,
				WatchDebounce: 50 * time.Millisecond,
				Sink:          "command",
				SinkCommand:   []string{"feh", "--bg-scale", "{path}"},
				HistoryDB:     "/env/history.db",
				MetricsAddr:   ":9200",
				LogFile:       "-",
				LogLevel:      "debug",
				Once:          true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"WALLROTATE_WORK_DIR": "/env/work",
				"WALLROTATE_SINK":     "spi",
			},
			changed: map[string]bool{"work-dir": true},
			initial: Config{
				WorkDir: "/flag/work",
			},
			expected: Config{
				WorkDir: "/flag/work",
				Sink:    "spi",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"WALLROTATE_TIMER_CAP": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for unbalanced sink command quote",
			envVars: map[string]string{
				"WALLROTATE_SINK_COMMAND": `feh --bg-fill "{path}`,
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"WALLROTATE_ONCE": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{Once: true},
			expected: Config{Once: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				assertConfig(t, cfg, tt.expected)
			}
		})
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "  swaybg  -i {path} ", want: []string{"swaybg", "-i", "{path}"}},
		{in: `osascript -e "tell application \"Finder\" to set desktop picture to POSIX file \"{path}\""`,
			want: []string{"osascript", "-e", `tell application "Finder" to set desktop picture to POSIX file "{path}"`}},
		{in: `'/opt/my tools/setbg' {path}`, want: []string{"/opt/my tools/setbg", "{path}"}},
		{in: "", want: nil},
		{in: "   ", want: nil},
		{in: `feh "{path}`, wantErr: true},
	}
	for _, tt := range tests {
		got, err := SplitCommand(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitCommand(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.want == nil && got != nil {
			t.Errorf("SplitCommand(%q) = %q, want nil", tt.in, got)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
