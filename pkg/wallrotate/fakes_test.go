package wallrotate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/wallrotate/pkg/wallrotate"
)

// testLogger implements wallrotate.Logger for capturing log output in tests.
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, fields ...wallrotate.LogField) { l.log("DEBUG", msg) }
func (l *testLogger) Info(msg string, fields ...wallrotate.LogField)  { l.log("INFO", msg) }
func (l *testLogger) Warn(msg string, fields ...wallrotate.LogField)  { l.log("WARN", msg) }
func (l *testLogger) Error(msg string, fields ...wallrotate.LogField) { l.log("ERROR", msg) }

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("[%s] %s", level, msg))
}

func (l *testLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// memSink records applied images.
type memSink struct {
	mu      sync.Mutex
	applied []string
	fail    bool
}

func (s *memSink) Name() string { return "mem" }

func (s *memSink) Apply(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("display unavailable")
	}
	s.applied = append(s.applied, path)
	return nil
}

func (s *memSink) Applied() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.applied...)
}

// recordingHandler collects events.
type recordingHandler struct {
	wallrotate.BaseEventHandler
	mu       sync.Mutex
	states   []wallrotate.StateChangeEvent
	outcomes []wallrotate.OutcomeEvent
	triggers []wallrotate.TriggerEvent
}

func (h *recordingHandler) OnStateChange(ev wallrotate.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, ev)
}

func (h *recordingHandler) OnOutcome(ev wallrotate.OutcomeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, ev)
}

func (h *recordingHandler) OnTrigger(ev wallrotate.TriggerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.triggers = append(h.triggers, ev)
}

func (h *recordingHandler) Outcomes() []wallrotate.OutcomeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]wallrotate.OutcomeEvent(nil), h.outcomes...)
}

func (h *recordingHandler) count(kind wallrotate.OutcomeKind, src wallrotate.TriggerSource) int {
	n := 0
	for _, o := range h.Outcomes() {
		if o.Kind == kind && (src == "" || o.Trigger.Source == src) {
			n++
		}
	}
	return n
}

func (h *recordingHandler) States() []wallrotate.StateChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]wallrotate.StateChangeEvent(nil), h.states...)
}

// trackingPlugin tracks initialization and shutdown calls.
type trackingPlugin struct {
	name      string
	order     *[]string
	orderMu   *sync.Mutex
	initError error

	mu       sync.Mutex
	cfg      wallrotate.PluginConfig
	outcomes int
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg wallrotate.PluginConfig) error {
	if p.initError != nil {
		return p.initError
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	p.record("init:" + p.name)
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.record("shutdown:" + p.name)
	return nil
}

func (p *trackingPlugin) OnOutcome(ev wallrotate.OutcomeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes++
}

func (p *trackingPlugin) Outcomes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcomes
}

func (p *trackingPlugin) record(s string) {
	p.orderMu.Lock()
	defer p.orderMu.Unlock()
	*p.order = append(*p.order, s)
}
