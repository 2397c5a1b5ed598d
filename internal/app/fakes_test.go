package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// memStateStore is an in-memory ports.StateStore.
type memStateStore struct {
	mu      sync.Mutex
	state   domain.RotationState
	present bool
	loadErr error
	saveErr error
	saves   int
}

func newMemStateStore(st domain.RotationState) *memStateStore {
	return &memStateStore{state: st, present: true}
}

func (m *memStateStore) Load(ctx context.Context) (domain.RotationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.RotationState{}, m.loadErr
	}
	if !m.present {
		return domain.RotationState{}, errors.Join(domain.ErrStorage, errors.New("state record missing"))
	}
	return m.state.Clone(), nil
}

func (m *memStateStore) Save(ctx context.Context, st domain.RotationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = st.Clone()
	m.present = true
	m.saves++
	return nil
}

func (m *memStateStore) snapshot() (domain.RotationState, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), m.saves
}

// staticConfig is a fixed ports.ConfigSource.
type staticConfig struct {
	cfg domain.RotationConfig
	err error
}

func (s staticConfig) Load(ctx context.Context) (domain.RotationConfig, error) {
	return s.cfg, s.err
}

// staticPool is a fixed ports.ImagePool.
type staticPool struct {
	images []string
	err    error
}

func (s staticPool) Images(ctx context.Context, directories []string) ([]string, error) {
	return s.images, s.err
}

// recordingSink records every applied image.
type recordingSink struct {
	mu      sync.Mutex
	applied []string
	err     error
	delay   time.Duration
}

func (r *recordingSink) Apply(ctx context.Context, path string) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.applied = append(r.applied, path)
	return nil
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recordingSink) Applied() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.applied...)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// fixedRand always picks index i modulo n.
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

// outcomeRecorder is an OutcomeObserver.
type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []domain.Outcome
}

func (o *outcomeRecorder) OnOutcome(out domain.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *outcomeRecorder) Outcomes() []domain.Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Outcome(nil), o.outcomes...)
}
