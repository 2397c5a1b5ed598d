// Package history journals every rotation attempt to a SQLite database.
// When enabled, each outcome is stored with its attempt ID and the journal
// is periodically trimmed to a bounded number of rows.
package history

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bft-labs/wallrotate/pkg/log"
	"github.com/bft-labs/wallrotate/pkg/wallrotate"
)

// DefaultFileName is used when Config.Path is empty.
const DefaultFileName = "history.db"

// Config holds configuration options for the history plugin.
type Config struct {
	// Path is the SQLite database file.
	// Default: WorkDir/history.db
	Path string

	// CheckInterval is how often the journal size is checked.
	// Default: 1 hour
	CheckInterval time.Duration

	// HighWatermark is the row count above which pruning begins.
	// Default: 10000
	HighWatermark int

	// LowWatermark is the row count kept after pruning.
	// Default: 8000
	LowWatermark int

	// WriteTimeout bounds a single journal write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval: time.Hour,
		HighWatermark: 10000,
		LowWatermark:  8000,
		WriteTimeout:  5 * time.Second,
	}
}

// Plugin journals attempt outcomes.
type Plugin struct {
	mu sync.RWMutex

	path          string
	checkInterval time.Duration
	highWatermark int
	lowWatermark  int
	writeTimeout  time.Duration

	store  *Store
	logger log.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a history plugin with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = def.HighWatermark
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark > cfg.HighWatermark {
		cfg.LowWatermark = cfg.HighWatermark * 4 / 5
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	return &Plugin{
		path:          cfg.Path,
		checkInterval: cfg.CheckInterval,
		highWatermark: cfg.HighWatermark,
		lowWatermark:  cfg.LowWatermark,
		writeTimeout:  cfg.WriteTimeout,
		logger:        log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "history"
}

// Initialize opens the journal and starts the prune loop.
func (p *Plugin) Initialize(ctx context.Context, cfg wallrotate.PluginConfig) error {
	p.mu.Lock()
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	if p.path == "" {
		p.path = filepath.Join(cfg.WorkDir, DefaultFileName)
	}
	store, err := Open(p.path)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.store = store
	p.mu.Unlock()

	pruneCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("history journal opened", log.String("path", p.path))

	p.wg.Add(1)
	go p.pruneLoop(pruneCtx)

	return nil
}

// Shutdown stops the prune loop and closes the journal.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.store.Close()
	p.store = nil
	return err
}

// Store returns the open journal, or nil before Initialize.
func (p *Plugin) Store() *Store {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store
}

// OnOutcome journals one attempt. Write failures are logged and dropped.
func (p *Plugin) OnOutcome(ev wallrotate.OutcomeEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.store == nil {
		return
	}

	e := Entry{
		AttemptID:    ev.AttemptID,
		Trigger:      string(ev.Trigger.Source),
		Outcome:      ev.Kind.String(),
		Image:        ev.Image,
		Reason:       ev.Reason,
		PoolSize:     ev.PoolSize,
		VisitedCount: ev.VisitedCount,
		Reset:        ev.Reset,
		StartedAt:    ev.StartedAt,
		Duration:     ev.Duration,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()
	if err := p.store.Record(ctx, e); err != nil {
		p.logger.Error("history: record failed", log.String("attempt", ev.AttemptID), log.Err(err))
	}
}

// pruneLoop runs periodic size checks.
func (p *Plugin) pruneLoop(ctx context.Context) {
	defer p.wg.Done()

	p.pruneOnce(ctx)

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pruneOnce(ctx)
		}
	}
}

// pruneOnce trims the journal to the low watermark once it exceeds the high
// watermark.
func (p *Plugin) pruneOnce(ctx context.Context) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.store == nil {
		return
	}

	n, err := p.store.Count(ctx)
	if err != nil {
		p.logger.Error("history: size check failed", log.Err(err))
		return
	}
	if n <= p.highWatermark {
		return
	}

	removed, err := p.store.Prune(ctx, p.lowWatermark)
	if err != nil {
		p.logger.Error("history: prune failed", log.Err(err))
		return
	}
	p.logger.Info("history: pruned journal", log.Int64("removed", removed), log.Int("kept", p.lowWatermark))
}
