package wallrotate

import (
	"github.com/bft-labs/wallrotate/internal/app"
	"github.com/bft-labs/wallrotate/internal/domain"
)

// State is the lifecycle state of a Rotator.
type State = app.State

const (
	StateStopped  = app.StateStopped
	StateStarting = app.StateStarting
	StateRunning  = app.StateRunning
	StateStopping = app.StateStopping
	StateCrashed  = app.StateCrashed
)

// Trigger, Outcome and their enums are shared with the engine.
type (
	Trigger       = domain.Trigger
	TriggerSource = domain.TriggerSource
	Outcome       = domain.Outcome
	OutcomeKind   = domain.OutcomeKind
)

const (
	SourceTimer  = domain.SourceTimer
	SourceWatch  = domain.SourceWatch
	SourceManual = domain.SourceManual

	OutcomeRotated = domain.OutcomeRotated
	OutcomeSkipped = domain.OutcomeSkipped
	OutcomeFailed  = domain.OutcomeFailed
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// TriggerEvent is emitted for every trigger offered to the scheduler.
// Queued is false when it was coalesced into a pending trigger.
type TriggerEvent struct {
	Trigger Trigger
	Queued  bool
}

// OutcomeEvent is emitted after every rotation attempt.
type OutcomeEvent struct {
	Outcome
}

// EventHandler receives rotator events. Methods are called synchronously
// from the scheduler goroutine and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnTrigger(event TriggerEvent)
	OnOutcome(event OutcomeEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnTrigger(TriggerEvent)         {}
func (BaseEventHandler) OnOutcome(OutcomeEvent)         {}

// dispatcher fans engine callbacks out to the event handler and to plugins
// that observe outcomes or triggers.
type dispatcher struct {
	handler  EventHandler
	outcomes []OutcomeObserver
	triggers []TriggerObserver
}

func newDispatcher(handler EventHandler, plugins []Plugin) *dispatcher {
	d := &dispatcher{handler: handler}
	for _, p := range plugins {
		if o, ok := p.(OutcomeObserver); ok {
			d.outcomes = append(d.outcomes, o)
		}
		if o, ok := p.(TriggerObserver); ok {
			d.triggers = append(d.triggers, o)
		}
	}
	return d
}

func (d *dispatcher) OnStateChange(previous, current app.State, reason string) {
	if d.handler == nil {
		return
	}
	d.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

func (d *dispatcher) OnOutcome(out domain.Outcome) {
	ev := OutcomeEvent{Outcome: out}
	if d.handler != nil {
		d.handler.OnOutcome(ev)
	}
	for _, o := range d.outcomes {
		o.OnOutcome(ev)
	}
}

func (d *dispatcher) OnTrigger(trig domain.Trigger, queued bool) {
	ev := TriggerEvent{Trigger: trig, Queued: queued}
	if d.handler != nil {
		d.handler.OnTrigger(ev)
	}
	for _, o := range d.triggers {
		o.OnTrigger(ev)
	}
}
