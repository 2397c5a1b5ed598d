package wallrotate

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/wallrotate/internal/adapters/fs"
	"github.com/bft-labs/wallrotate/internal/adapters/sink"
	"github.com/bft-labs/wallrotate/internal/adapters/watch"
	"github.com/bft-labs/wallrotate/internal/app"
	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// Rotator rotates the desktop wallpaper on a schedule and whenever the state
// or config record changes. Use New() to create an instance, then Start().
type Rotator struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	executor  *app.Executor
	events    *dispatcher
	states    *fs.StateFile
	configs   *fs.ConfigFile
	sink      ports.WallpaperSink
	notifier  ports.ChangeNotifier
	logger    ports.Logger

	plugins []Plugin

	mu        sync.RWMutex
	cancel    context.CancelFunc
	scheduler *app.Scheduler
}

// New creates a Rotator in StateStopped. The wallpaper sink is chosen here,
// once, for the detected platform unless WithSink is given.
func New(cfg Config, opts ...Option) (*Rotator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	wallpaperSink := o.sink
	if wallpaperSink == nil {
		mode, err := sink.ParseMode(cfg.Sink)
		if err != nil {
			return nil, err
		}
		platform := sink.Detect()
		wallpaperSink, err = sink.New(sink.Options{Mode: mode, Command: cfg.SinkCommand}, platform, logger)
		if err != nil {
			return nil, fmt.Errorf("select wallpaper sink: %w", err)
		}
		logger.Info("wallpaper sink selected",
			ports.String("sink", wallpaperSink.Name()),
			ports.String("platform", platform.String()),
		)
	}

	pool := o.pool
	if pool == nil {
		pool = fs.NewImagePool(o.fs, logger)
	}

	notifier := o.notifier
	if notifier == nil && !cfg.DisableWatch {
		notifier = watch.NewNotifier(cfg.WatchDebounce, logger)
	}

	events := newDispatcher(o.eventHandler, o.plugins)
	states := fs.NewStateFile(o.fs, cfg.StateFile)
	configs := fs.NewConfigFile(o.fs, cfg.ConfigFile)

	executor := app.NewExecutor(states, configs, pool, wallpaperSink, logger, events)
	if o.clock != nil {
		executor.SetClock(o.clock)
	}
	if o.rand != nil {
		executor.SetRand(o.rand)
	}

	return &Rotator{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, events),
		executor:  executor,
		events:    events,
		states:    states,
		configs:   configs,
		sink:      wallpaperSink,
		notifier:  notifier,
		logger:    logger,
		plugins:   o.plugins,
	}, nil
}

// BootstrapResult reports what Bootstrap created.
type BootstrapResult struct {
	StateCreated  bool
	ConfigCreated bool

	// NoDirectories is true when the config record lists no image
	// directories, so every attempt will fail with ErrEmptyPool.
	NoDirectories bool
}

// Bootstrap creates missing state and config records with their defaults.
// Existing records are left alone.
func (r *Rotator) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	var res BootstrapResult
	var err error

	if res.StateCreated, err = r.states.EnsureDefault(ctx); err != nil {
		return res, err
	}
	if res.StateCreated {
		r.logger.Info("state record created", ports.String("path", r.states.Path()))
	}

	if res.ConfigCreated, err = r.configs.EnsureDefault(ctx); err != nil {
		return res, err
	}
	if res.ConfigCreated {
		r.logger.Warn("config not found, created a default one", ports.String("path", r.configs.Path()))
	}

	cfg, err := r.configs.Load(ctx)
	if err != nil {
		return res, err
	}
	if len(cfg.Directories) == 0 {
		res.NoDirectories = true
		r.logger.Warn("no image directories configured, edit the config record to set directories",
			ports.String("path", r.configs.Path()),
		)
	}
	return res, nil
}

// Start runs the scheduler in the background and returns once it has been
// launched. The interval read from the config record at this point sets the
// initial timer period.
func (r *Rotator) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.lifecycle.SetCancel(cancel)

	fail := func(reason string, err error) error {
		cancel()
		_ = r.lifecycle.TransitionTo(app.StateCrashed, reason)
		return err
	}

	cfg, err := r.configs.Load(runCtx)
	if err != nil {
		return fail("config unreadable", err)
	}

	var watchPaths []string
	if r.notifier != nil {
		watchPaths = []string{r.config.ConfigFile, r.config.StateFile}
	}
	scheduler, err := app.NewScheduler(app.SchedulerConfig{
		Interval:   cfg.Interval(),
		TimerCap:   r.config.TimerCap,
		WatchPaths: watchPaths,
	}, r.executor, r.notifier, r.logger, r.events)
	if err != nil {
		return fail("scheduler init failed", err)
	}
	r.scheduler = scheduler

	pluginCfg := PluginConfig{
		WorkDir:    r.config.WorkDir,
		StateFile:  r.config.StateFile,
		ConfigFile: r.config.ConfigFile,
		SinkName:   r.sink.Name(),
		Logger:     r.logger,
	}
	for i, p := range r.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			r.shutdownPluginsFrom(i - 1)
			_ = r.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		r.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	r.lifecycle.AddWorker()
	go func() {
		defer r.lifecycle.WorkerDone()

		if err := r.lifecycle.TransitionTo(app.StateRunning, "scheduler starting"); err != nil {
			r.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		if err := scheduler.Run(runCtx); err != nil {
			r.logger.Error("scheduler error", ports.Err(err))
			_ = r.lifecycle.TransitionTo(app.StateCrashed, err.Error())
			// Stop refuses a crashed rotator, so plugins are released here.
			r.shutdownPlugins()
		}
	}()

	return nil
}

// Stop cancels the producers, waits for an in-flight attempt to finish and
// shuts plugins down. Returns ErrShutdownTimeout if the scheduler does not
// stop within 30 seconds.
func (r *Rotator) Stop() error {
	r.mu.Lock()

	if !r.lifecycle.CanStop() {
		r.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	err := r.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	r.shutdownPlugins()

	if err != nil {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Rotator) Status() State {
	return r.lifecycle.State()
}

// RunOnce runs a single attempt outside the scheduler. It is safe to call
// while the Rotator is running; the attempt is serialized with scheduled ones.
func (r *Rotator) RunOnce(ctx context.Context) Outcome {
	return r.executor.Attempt(ctx, Trigger{Source: SourceManual, Reason: "run once"})
}

// Trigger asks the running scheduler for an attempt. It returns false when
// the Rotator is not running or a trigger is already pending.
func (r *Rotator) Trigger(reason string) bool {
	r.mu.RLock()
	s := r.scheduler
	r.mu.RUnlock()
	if s == nil || r.lifecycle.State() != app.StateRunning {
		return false
	}
	return s.Offer(Trigger{Source: SourceManual, Reason: reason})
}

// SinkName returns the name of the selected wallpaper sink.
func (r *Rotator) SinkName() string {
	return r.sink.Name()
}

func (r *Rotator) shutdownPlugins() {
	r.shutdownPluginsFrom(len(r.plugins) - 1)
}

// shutdownPluginsFrom shuts down plugins last..0 in reverse order.
func (r *Rotator) shutdownPluginsFrom(last int) {
	ctx := context.Background()
	for i := last; i >= 0; i-- {
		p := r.plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			r.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}
