package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/wallrotate/internal/adapters/fs"
	"github.com/bft-labs/wallrotate/internal/cliconfig"
	"github.com/bft-labs/wallrotate/pkg/log"
	"github.com/bft-labs/wallrotate/pkg/wallrotate"
	"github.com/bft-labs/wallrotate/plugins/history"
	"github.com/bft-labs/wallrotate/plugins/metrics"
)

const helpDescription = `
Rotate the desktop wallpaper through a pool of images without repeats.

Highlights:
  - Picks a new image every interval and only repeats once the pool is exhausted.
  - Reacts to edits of config.json and state.json; the interval still applies.
  - Works with the native Windows API or any command that sets a wallpaper.
  - Configure via settings file, env (WALLROTATE_*), or flags.

On first run config.json is created in the work directory; set "directories"
there to point at your images.
`

var exampleUsage = strings.TrimSpace(`
  wallrotate
  wallrotate --work-dir ~/.wallrotate --once
  wallrotate --sink command --sink-command "feh --bg-fill {path}"
  wallrotate --metrics-addr 127.0.0.1:9465 --history-db ~/.wallrotate/history.db
`)

// pollStatus is how often the daemon checks for a crashed rotator.
const pollStatus = 200 * time.Millisecond

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var sinkCommand string

	boot := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "wallrotate",
		Short:         "Rotate the desktop wallpaper on a schedule",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if changed["sink-command"] {
				argv, err := cliconfig.SplitCommand(sinkCommand)
				if err != nil {
					return fmt.Errorf("parse --sink-command: %w", err)
				}
				cfg.SinkCommand = argv
			}

			// Settings file, then env; flags recorded in changed win over both.
			if err := cliconfig.Load(&cfg, cfgPath, changed); err != nil {
				return err
			}

			logger, closer, err := cliconfig.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			logger.Info("configuration",
				log.String("work_dir", cfg.WorkDir),
				log.String("state_file", cfg.StateFile),
				log.String("config_file", cfg.ConfigFile),
				log.String("sink", cfg.Sink),
				log.Duration("timer_cap", cfg.TimerCap),
				log.Bool("once", cfg.Once),
			)

			if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
				return fmt.Errorf("create work dir: %w", err)
			}

			info := fs.CurrentProcessInfo(start)
			infoPath := filepath.Join(cfg.WorkDir, fs.DefaultProcessInfoFileName)
			if err := fs.WriteProcessInfo(afero.NewOsFs(), infoPath, info); err != nil {
				logger.Warn("process info not written", log.String("path", infoPath), log.Err(err))
			}
			logger.Info("process start", log.Int("pid", info.PID), log.String("start_time", info.StartTime))

			opts := []wallrotate.Option{wallrotate.WithLogger(logger)}
			if cfg.MetricsAddr != "" {
				mc := metrics.DefaultConfig()
				mc.Addr = cfg.MetricsAddr
				opts = append(opts, metrics.WithMetrics(mc))
			}
			if cfg.HistoryDB != "" {
				opts = append(opts, history.WithHistory(history.Config{Path: cfg.HistoryDB}))
			}

			r, err := wallrotate.New(wallrotate.Config{
				WorkDir:       cfg.WorkDir,
				StateFile:     cfg.StateFile,
				ConfigFile:    cfg.ConfigFile,
				TimerCap:      cfg.TimerCap,
				WatchDebounce: cfg.WatchDebounce,
				DisableWatch:  cfg.Once,
				Sink:          cfg.Sink,
				SinkCommand:   cfg.SinkCommand,
			}, opts...)
			if err != nil {
				return fmt.Errorf("create rotator: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if _, err := r.Bootstrap(ctx); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			if cfg.Once {
				out := r.RunOnce(ctx)
				if out.Kind == wallrotate.OutcomeFailed {
					return fmt.Errorf("rotation failed: %s: %w", out.Reason, out.Err)
				}
				return nil
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := r.Start(ctx); err != nil {
				return fmt.Errorf("start rotator: %w", err)
			}

			crashed := make(chan struct{})
			go func() {
				ticker := time.NewTicker(pollStatus)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if r.Status() == wallrotate.StateCrashed {
							close(crashed)
							return
						}
					}
				}
			}()

			select {
			case sig := <-sigCh:
				logger.Info("received signal, stopping", log.String("signal", sig.String()))
			case <-crashed:
				logger.Error("rotator crashed")
			}

			if err := r.Stop(); err != nil && !errors.Is(err, wallrotate.ErrNotRunning) {
				return fmt.Errorf("stop rotator: %w", err)
			}
			return nil
		},
	}

	def := cliconfig.DefaultConfig()
	root.Flags().StringVar(&cfgPath, "config", "", "path to settings file (default: $HOME/.wallrotate/settings.toml)")
	root.Flags().StringVar(&cfg.WorkDir, "work-dir", def.WorkDir, "directory holding state, config and logs")
	root.Flags().StringVar(&cfg.StateFile, "state-file", "", "rotation state record (default: <work-dir>/state.json)")
	root.Flags().StringVar(&cfg.ConfigFile, "config-file", "", "rotation config record (default: <work-dir>/config.json)")

	root.Flags().DurationVar(&cfg.TimerCap, "timer-cap", def.TimerCap, "upper bound of the timer period")
	root.Flags().DurationVar(&cfg.WatchDebounce, "watch-debounce", def.WatchDebounce, "window for coalescing record changes")
	if err := root.Flags().MarkHidden("watch-debounce"); err != nil {
		boot.Info().Err(err).Msg("failed to hide watch-debounce flag")
	}

	root.Flags().StringVar(&cfg.Sink, "sink", def.Sink, "wallpaper sink: auto, spi, vda or command")
	root.Flags().StringVar(&sinkCommand, "sink-command", "", `command that sets the wallpaper; "{path}" is replaced with the image`)

	root.Flags().StringVar(&cfg.HistoryDB, "history-db", "", "SQLite journal of attempts (disabled when empty)")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", "", "listen address for Prometheus metrics (disabled when empty)")

	root.Flags().StringVar(&cfg.LogFile, "log-file", "", `log file (default: <work-dir>/wallrotate.log, "-" disables)`)
	root.Flags().StringVar(&cfg.LogLevel, "log-level", def.LogLevel, "debug, info, warn or error")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "run a single rotation attempt and exit")

	if err := root.Execute(); err != nil {
		boot.Error().Err(err).Msg("wallrotate")
		os.Exit(1)
	}
}
