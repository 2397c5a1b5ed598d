package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// DefaultTimerCap bounds the timer period so that a shortened interval
// picked up from a config edit is noticed within this delay.
const DefaultTimerCap = 600 * time.Second

// Attempter runs one rotation attempt. *Executor satisfies it.
type Attempter interface {
	Attempt(ctx context.Context, trig domain.Trigger) domain.Outcome
}

// TriggerObserver is told about every trigger offered to the scheduler and
// whether it was queued or coalesced into one already pending.
type TriggerObserver interface {
	OnTrigger(trig domain.Trigger, queued bool)
}

// SchedulerConfig configures the trigger producers.
type SchedulerConfig struct {
	// Interval is the rotation interval observed at startup.
	Interval time.Duration

	// TimerCap bounds the timer period. Default: DefaultTimerCap.
	TimerCap time.Duration

	// WatchPaths are the records whose changes trigger an attempt.
	WatchPaths []string

	// RestartInitial and RestartMax bound the backoff used to restart a
	// failed watch subscription.
	RestartInitial time.Duration
	RestartMax     time.Duration
}

// Scheduler fans the timer and watch producers into a single consumer that
// drives the executor.
//
// The timer period is min(interval, cap). After each attempt the consumer
// compares the interval the attempt observed with the current period and
// reschedules the timer when the operator changed it.
type Scheduler struct {
	cfg      SchedulerConfig
	exec     Attempter
	notifier ports.ChangeNotifier
	logger   ports.Logger
	observer TriggerObserver
	now      func() time.Time

	cron     gocron.Scheduler
	triggers chan domain.Trigger

	mu     sync.Mutex
	job    gocron.Job
	period time.Duration

	coalesced atomic.Int64
	running   atomic.Bool
}

// NewScheduler creates a scheduler. notifier and observer may be nil; without
// a notifier only the timer drives rotations.
func NewScheduler(
	cfg SchedulerConfig,
	exec Attempter,
	notifier ports.ChangeNotifier,
	logger ports.Logger,
	observer TriggerObserver,
) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", domain.ErrInvalidConfig)
	}
	if cfg.TimerCap <= 0 {
		cfg.TimerCap = DefaultTimerCap
	}
	if cfg.RestartInitial <= 0 {
		cfg.RestartInitial = DefaultBackoffInitial
	}
	if cfg.RestartMax <= 0 {
		cfg.RestartMax = DefaultBackoffMax
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		cfg:      cfg,
		exec:     exec,
		notifier: notifier,
		logger:   logger,
		observer: observer,
		now:      time.Now,
		cron:     cron,
		triggers: make(chan domain.Trigger, 1),
	}, nil
}

// Run starts both producers and consumes triggers until ctx is cancelled.
// An attempt in flight when ctx is cancelled runs to completion; Run returns
// after it and both producers have stopped. Run may only be called once.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrAlreadyRunning
	}

	period := s.periodFor(s.cfg.Interval)
	job, err := s.cron.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(s.timerFired),
		gocron.WithName("rotation-timer"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create rotation timer: %w", err)
	}
	s.mu.Lock()
	s.job = job
	s.period = period
	s.mu.Unlock()

	s.logger.Info("starting scheduler",
		ports.Duration("period", period),
		ports.Strings("watch", s.cfg.WatchPaths),
	)
	s.cron.Start()

	var wg sync.WaitGroup
	if s.notifier != nil && len(s.cfg.WatchPaths) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watchLoop(ctx)
		}()
	}

	s.consume(ctx)

	if err := s.cron.Shutdown(); err != nil {
		s.logger.Warn("timer shutdown", ports.Err(err))
	}
	wg.Wait()

	s.logger.Info("scheduler stopped", ports.Int64("coalesced_triggers", s.coalesced.Load()))
	return nil
}

// consume is the single consumer. Attempts run on a context detached from
// cancellation so a stop request never tears an attempt mid-write.
func (s *Scheduler) consume(ctx context.Context) {
	attemptCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case trig := <-s.triggers:
			// select picks randomly when both are ready; a trigger taken
			// after cancellation must not start a new attempt.
			if ctx.Err() != nil {
				s.logger.Debug("trigger dropped after stop",
					ports.String("trigger", string(trig.Source)),
				)
				return
			}
			out := s.exec.Attempt(attemptCtx, trig)
			s.reschedule(out.Interval)
		}
	}
}

// Offer queues a trigger without blocking. If a trigger is already pending
// the new one is coalesced into it and Offer returns false.
func (s *Scheduler) Offer(trig domain.Trigger) bool {
	if trig.At.IsZero() {
		trig.At = s.now()
	}

	queued := false
	select {
	case s.triggers <- trig:
		queued = true
	default:
		s.coalesced.Add(1)
		s.logger.Debug("trigger coalesced",
			ports.String("trigger", string(trig.Source)),
			ports.String("reason", trig.Reason),
		)
	}

	if s.observer != nil {
		s.observer.OnTrigger(trig, queued)
	}
	return queued
}

// Period returns the current timer period.
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Coalesced returns the number of triggers merged into a pending one.
func (s *Scheduler) Coalesced() int64 {
	return s.coalesced.Load()
}

func (s *Scheduler) timerFired() {
	s.Offer(domain.Trigger{Source: domain.SourceTimer, Reason: "tick"})
}

func (s *Scheduler) periodFor(interval time.Duration) time.Duration {
	return min(interval, s.cfg.TimerCap)
}

// reschedule updates the timer when the configured interval implies a
// different period. A zero interval means the attempt could not read the
// config and leaves the timer alone.
func (s *Scheduler) reschedule(interval time.Duration) {
	if interval <= 0 {
		return
	}
	want := s.periodFor(interval)

	s.mu.Lock()
	defer s.mu.Unlock()

	if want == s.period || s.job == nil {
		return
	}

	job, err := s.cron.Update(
		s.job.ID(),
		gocron.DurationJob(want),
		gocron.NewTask(s.timerFired),
		gocron.WithName("rotation-timer"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.logger.Error("failed to reschedule rotation timer",
			ports.Duration("period", want),
			ports.Err(err),
		)
		return
	}

	s.logger.Info("rotation timer rescheduled",
		ports.Duration("from", s.period),
		ports.Duration("to", want),
	)
	s.job = job
	s.period = want
}

// watchLoop keeps a change subscription alive for the lifetime of ctx,
// restarting it with backoff when it fails. Failures here never stop the
// timer producer.
func (s *Scheduler) watchLoop(ctx context.Context) {
	b := newBackoff(s.cfg.RestartInitial, s.cfg.RestartMax)

	for {
		batches, err := s.notifier.Watch(ctx, s.cfg.WatchPaths)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("watch subscription failed",
				ports.Err(fmt.Errorf("%w: %w", domain.ErrNotification, err)),
				ports.Duration("retry_in", b.Current()),
			)
			if b.Wait(ctx) != nil {
				return
			}
			continue
		}
		b.Reset()

		for batch := range batches {
			paths := make([]string, 0, len(batch.Events))
			for _, ev := range batch.Events {
				paths = append(paths, ev.Path)
			}
			s.logger.Info("watched files changed", ports.Strings("paths", paths))
			s.Offer(domain.Trigger{Source: domain.SourceWatch, Reason: "file change", At: batch.At})
		}

		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("watch subscription ended, restarting",
			ports.Err(domain.ErrNotification),
			ports.Duration("retry_in", b.Current()),
		)
		if b.Wait(ctx) != nil {
			return
		}
	}
}
