// Package metrics exports rotation metrics in the Prometheus format.
// When enabled, it counts attempt outcomes and triggers and serves them on
// an HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/wallrotate/pkg/log"
	"github.com/bft-labs/wallrotate/pkg/wallrotate"
)

const namespace = "wallrotate"

// Config holds configuration options for the metrics plugin.
type Config struct {
	// Addr is the listen address of the metrics endpoint. Empty disables
	// the HTTP server; metrics are still collected and reachable through
	// Handler.
	Addr string

	// Path is the HTTP path of the endpoint.
	// Default: /metrics
	Path string

	// Registry receives the collectors. Default: a new registry with the Go
	// and process collectors.
	Registry *prom.Registry
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Path: "/metrics"}
}

// Plugin collects outcome and trigger metrics.
type Plugin struct {
	addr     string
	path     string
	registry *prom.Registry

	outcomes        *prom.CounterVec
	triggers        *prom.CounterVec
	attemptDuration prom.Histogram
	poolSize        prom.Gauge
	visited         prom.Gauge
	lastRotation    prom.Gauge

	mu       sync.Mutex
	logger   log.Logger
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// New creates a metrics plugin and registers its collectors.
func New(cfg Config) *Plugin {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}

	p := &Plugin{
		addr:     cfg.Addr,
		path:     cfg.Path,
		registry: reg,
		logger:   log.NewNoopLogger(),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Rotation attempts by outcome and trigger source",
		}, []string{"outcome", "trigger"}),
		triggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Triggers offered to the scheduler; queued=false means coalesced",
		}, []string{"source", "queued"}),
		attemptDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of rotation attempts",
			Buckets:   prom.DefBuckets,
		}),
		poolSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Candidate images seen by the last attempt that queried the pool",
		}),
		visited: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "visited_images",
			Help:      "Images shown since the last pool reset",
		}),
		lastRotation: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_rotation_timestamp_seconds",
			Help:      "Unix time of the last successful rotation",
		}),
	}
	reg.MustRegister(p.outcomes, p.triggers, p.attemptDuration, p.poolSize, p.visited, p.lastRotation)
	return p
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "metrics"
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Plugin) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Initialize starts the HTTP endpoint when an address is configured.
func (p *Plugin) Initialize(ctx context.Context, cfg wallrotate.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	if p.addr == "" {
		p.logger.Info("metrics endpoint disabled")
		return nil
	}

	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", p.addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(p.path, p.Handler())
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	p.listener = ln
	p.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("metrics server stopped", log.Err(err))
		}
	}(p.server, p.done)

	p.logger.Info("metrics endpoint listening",
		log.String("addr", ln.Addr().String()),
		log.String("path", p.path),
	)
	return nil
}

// Addr returns the bound address of the endpoint, or "" when it is not
// serving.
func (p *Plugin) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Shutdown stops the HTTP endpoint.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	srv, done := p.server, p.done
	p.server, p.listener, p.done = nil, nil, nil
	p.mu.Unlock()

	if srv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-done
	return err
}

// OnOutcome records one attempt.
func (p *Plugin) OnOutcome(ev wallrotate.OutcomeEvent) {
	p.outcomes.WithLabelValues(ev.Kind.String(), string(ev.Trigger.Source)).Inc()
	p.attemptDuration.Observe(ev.Duration.Seconds())
	if ev.PoolSize > 0 {
		p.poolSize.Set(float64(ev.PoolSize))
	}
	if ev.Kind == wallrotate.OutcomeRotated {
		p.visited.Set(float64(ev.VisitedCount))
		// last_update is taken after the sink call, near the end of the attempt.
		p.lastRotation.Set(float64(ev.StartedAt.Add(ev.Duration).Unix()))
	}
}

// OnTrigger records one offered trigger.
func (p *Plugin) OnTrigger(ev wallrotate.TriggerEvent) {
	p.triggers.WithLabelValues(string(ev.Trigger.Source), strconv.FormatBool(ev.Queued)).Inc()
}
