package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// transitionRecorder records every reported state change.
type transitionRecorder struct {
	mu      sync.Mutex
	changes [][2]State
	reasons []string
}

func (r *transitionRecorder) OnStateChange(previous, current State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, [2]State{previous, current})
	r.reasons = append(r.reasons, reason)
}

func (r *transitionRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		StateStopped:  "Stopped",
		StateStarting: "Starting",
		StateRunning:  "Running",
		StateStopping: "Stopping",
		StateCrashed:  "Crashed",
		State(42):     "Unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}

// TestLifecycle_RotatorPaths drives the machine through the sequences a
// rotator goes through and checks which steps are refused.
func TestLifecycle_RotatorPaths(t *testing.T) {
	type step struct {
		to      State
		wantErr error
	}
	tests := []struct {
		name      string
		steps     []step
		wantState State
		canStart  bool
		canStop   bool
	}{
		{
			name:      "start, schedule, stop",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateStopping}, {to: StateStopped}},
			wantState: StateStopped,
			canStart:  true,
		},
		{
			name:      "config unreadable at start, then restarted",
			steps:     []step{{to: StateStarting}, {to: StateCrashed}, {to: StateStarting}},
			wantState: StateStarting,
			canStop:   true,
		},
		{
			name: "stop while starting keeps the worker out of running",
			steps: []step{
				{to: StateStarting},
				{to: StateStopping},
				{to: StateRunning, wantErr: domain.ErrAlreadyRunning},
				{to: StateStopped},
			},
			wantState: StateStopped,
			canStart:  true,
		},
		{
			name:      "scheduler error while running",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateCrashed}, {to: StateStopping, wantErr: domain.ErrNotRunning}},
			wantState: StateCrashed,
			canStart:  true,
		},
		{
			name:      "in-flight attempt outlives shutdown timeout",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateStopping}, {to: StateCrashed}},
			wantState: StateCrashed,
			canStart:  true,
		},
		{
			name:      "stop before start",
			steps:     []step{{to: StateStopping, wantErr: domain.ErrNotRunning}},
			wantState: StateStopped,
			canStart:  true,
		},
		{
			name:      "second start while running",
			steps:     []step{{to: StateStarting}, {to: StateRunning}, {to: StateStarting, wantErr: domain.ErrAlreadyRunning}},
			wantState: StateRunning,
			canStop:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &transitionRecorder{}
			l := NewLifecycle(mockLogger{}, rec)

			accepted := 0
			for i, s := range tt.steps {
				err := l.TransitionTo(s.to, "step")
				if !errors.Is(err, s.wantErr) {
					t.Fatalf("step %d to %v: error = %v, want %v", i, s.to, err, s.wantErr)
				}
				if err == nil {
					accepted++
				}
			}

			if got := l.State(); got != tt.wantState {
				t.Errorf("State() = %v, want %v", got, tt.wantState)
			}
			if got := l.CanStart(); got != tt.canStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.canStart)
			}
			if got := l.CanStop(); got != tt.canStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.canStop)
			}
			if got := rec.count(); got != accepted {
				t.Errorf("reported %d changes, want %d (refused steps are not reported)", got, accepted)
			}
		})
	}
}

// TestLifecycle_StopDuringStartSkipsScheduler mirrors the worker started by
// the rotator: it only runs the scheduler after moving to Running, which a
// concurrent Stop prevents.
func TestLifecycle_StopDuringStartSkipsScheduler(t *testing.T) {
	l := NewLifecycle(mockLogger{}, nil)
	if err := l.TransitionTo(StateStarting, "Start() called"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)

	gate := make(chan struct{})
	var schedulerRan bool
	l.AddWorker()
	go func() {
		defer l.WorkerDone()
		<-gate
		if err := l.TransitionTo(StateRunning, "scheduler starting"); err != nil {
			return
		}
		schedulerRan = true
		<-ctx.Done()
	}()

	if err := l.TransitionTo(StateStopping, "Stop() called"); err != nil {
		t.Fatal(err)
	}
	l.Cancel()
	close(gate)

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v", err)
	}
	if schedulerRan {
		t.Error("scheduler ran after Stop()")
	}
	if ctx.Err() == nil {
		t.Error("Cancel() did not reach the run context")
	}
	if err := l.TransitionTo(StateStopped, "graceful shutdown"); err != nil {
		t.Errorf("TransitionTo(Stopped) = %v", err)
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		attempt time.Duration
		timeout time.Duration
		wantErr error
	}{
		{name: "attempt finishes in time", attempt: 10 * time.Millisecond, timeout: time.Second},
		{name: "attempt outlives timeout", attempt: time.Second, timeout: 20 * time.Millisecond, wantErr: domain.ErrShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(mockLogger{}, nil)
			release := make(chan struct{})
			defer close(release)

			l.AddWorker()
			go func() {
				defer l.WorkerDone()
				select {
				case <-time.After(tt.attempt):
				case <-release:
				}
			}()

			if err := l.WaitWithTimeout(tt.timeout); !errors.Is(err, tt.wantErr) {
				t.Errorf("WaitWithTimeout() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// stateQueryingEmitter reads the state from inside the callback.
type stateQueryingEmitter struct {
	l    *Lifecycle
	seen []State
}

func (e *stateQueryingEmitter) OnStateChange(previous, current State, reason string) {
	e.seen = append(e.seen, e.l.State())
}

func TestLifecycle_HandlersMayQueryState(t *testing.T) {
	em := &stateQueryingEmitter{}
	l := NewLifecycle(mockLogger{}, em)
	em.l = l

	done := make(chan error, 1)
	go func() { done <- l.TransitionTo(StateStarting, "Start() called") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("TransitionTo() blocked while the handler read State()")
	}
	if len(em.seen) != 1 || em.seen[0] != StateStarting {
		t.Errorf("handler saw %v, want [Starting]", em.seen)
	}
}

func TestLifecycle_CancelWithoutRunContext(t *testing.T) {
	l := NewLifecycle(mockLogger{}, nil)
	l.Cancel()
}
