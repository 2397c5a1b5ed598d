package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// OutcomeObserver is called once per finished attempt.
type OutcomeObserver interface {
	OnOutcome(outcome domain.Outcome)
}

// Executor runs rotation attempts: load, interval gate, select, apply, save.
// At most one attempt runs at a time; a caller arriving mid-attempt waits and
// then evaluates fresh state, which is what turns the watch trigger fired by
// our own save into a Skipped outcome.
type Executor struct {
	mu sync.Mutex

	states   ports.StateStore
	configs  ports.ConfigSource
	pool     ports.ImagePool
	sink     ports.WallpaperSink
	logger   ports.Logger
	observer OutcomeObserver

	now func() time.Time
	rng Rand
}

// NewExecutor creates an executor with the given dependencies.
// observer may be nil.
func NewExecutor(
	states ports.StateStore,
	configs ports.ConfigSource,
	pool ports.ImagePool,
	sink ports.WallpaperSink,
	logger ports.Logger,
	observer OutcomeObserver,
) *Executor {
	return &Executor{
		states:   states,
		configs:  configs,
		pool:     pool,
		sink:     sink,
		logger:   logger,
		observer: observer,
		now:      time.Now,
		rng:      globalRand{},
	}
}

// SetClock replaces the time source.
func (e *Executor) SetClock(now func() time.Time) { e.now = now }

// SetRand replaces the randomness source used for selection.
func (e *Executor) SetRand(r Rand) { e.rng = r }

// Attempt runs one rotation attempt and reports its outcome.
// It never retries; the next trigger is the retry.
func (e *Executor) Attempt(ctx context.Context, trig domain.Trigger) domain.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := domain.Outcome{
		AttemptID: uuid.NewString(),
		Trigger:   trig,
		StartedAt: e.now(),
	}
	e.attempt(ctx, &out)
	out.Duration = e.now().Sub(out.StartedAt)

	e.report(out)
	return out
}

func (e *Executor) attempt(ctx context.Context, out *domain.Outcome) {
	state, err := e.states.Load(ctx)
	if err != nil {
		fail(out, domain.ReasonLoadFailed, err)
		return
	}
	cfg, err := e.configs.Load(ctx)
	if err != nil {
		fail(out, domain.ReasonLoadFailed, err)
		return
	}
	out.Interval = cfg.Interval()
	out.VisitedCount = len(state.Visited)

	if !state.Elapsed(e.now(), cfg.Interval()) {
		out.Kind = domain.OutcomeSkipped
		out.Reason = domain.ReasonIntervalNotElapsed
		return
	}

	images, err := e.pool.Images(ctx, cfg.Directories)
	if err != nil {
		fail(out, domain.ReasonPoolFailed, fmt.Errorf("query image pool: %w", err))
		return
	}
	out.PoolSize = len(images)

	sel, err := Select(images, state.Visited, e.rng)
	if err != nil {
		reason := domain.ReasonPoolFailed
		if errors.Is(err, domain.ErrEmptyPool) {
			reason = domain.ReasonEmptyPool
		}
		fail(out, reason, err)
		return
	}
	out.Image = sel.Chosen
	out.Reset = sel.Reset

	if err := e.sink.Apply(ctx, sel.Chosen); err != nil {
		if !errors.Is(err, domain.ErrSink) {
			err = fmt.Errorf("%w: %w", domain.ErrSink, err)
		}
		fail(out, domain.ReasonSinkRejected, err)
		return
	}

	next := state.Clone()
	next.Advance(e.now(), sel.NextVisited)

	// This save is observed by the watch producer; the interval gate above
	// handles the resulting trigger.
	if err := e.states.Save(ctx, next); err != nil {
		fail(out, domain.ReasonSaveFailed, err)
		return
	}

	out.Kind = domain.OutcomeRotated
	out.VisitedCount = len(next.Visited)
}

func fail(out *domain.Outcome, reason string, err error) {
	out.Kind = domain.OutcomeFailed
	out.Reason = reason
	out.Err = err
}

// report logs the outcome and notifies the observer.
func (e *Executor) report(out domain.Outcome) {
	fields := []ports.Field{
		ports.String("attempt", out.AttemptID),
		ports.String("trigger", string(out.Trigger.Source)),
	}

	switch out.Kind {
	case domain.OutcomeRotated:
		fields = append(fields,
			ports.String("image", out.Image),
			ports.Int("pool", out.PoolSize),
			ports.Int("visited", out.VisitedCount),
			ports.Bool("reset", out.Reset),
			ports.String("sink", e.sink.Name()),
		)
		e.logger.Info("set wallpaper", fields...)
	case domain.OutcomeSkipped:
		fields = append(fields, ports.String("reason", out.Reason))
		e.logger.Info("interval not reached, skip", fields...)
	case domain.OutcomeFailed:
		fields = append(fields, ports.String("reason", out.Reason), ports.Err(out.Err))
		if out.Image != "" {
			fields = append(fields, ports.String("image", out.Image))
		}
		if out.Reason == domain.ReasonEmptyPool {
			e.logger.Error("image list is empty, check directories in the config record", fields...)
		} else {
			e.logger.Error("rotation failed", fields...)
		}
	}

	if e.observer != nil {
		e.observer.OnOutcome(out)
	}
}
