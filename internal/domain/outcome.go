package domain

import "time"

// TriggerSource identifies the producer that asked for an attempt.
type TriggerSource string

const (
	SourceTimer  TriggerSource = "timer"
	SourceWatch  TriggerSource = "watch"
	SourceManual TriggerSource = "manual"
)

// Trigger is a request to run one rotation attempt.
type Trigger struct {
	Source TriggerSource
	Reason string
	At     time.Time
}

// OutcomeKind classifies an attempt.
type OutcomeKind int

const (
	OutcomeRotated OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

// String returns a human-readable representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRotated:
		return "rotated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single rotation attempt.
type Outcome struct {
	// AttemptID correlates log lines, events and history rows.
	AttemptID string
	Trigger   Trigger
	Kind      OutcomeKind

	// Image is the chosen image. Set for Rotated, and for Failed when the
	// failure happened after selection.
	Image string

	// Reason is a short machine-friendly explanation for Skipped and Failed.
	Reason string

	// Err is the cause of a Failed outcome.
	Err error

	// Interval is the configured interval observed by the attempt, zero when
	// the config could not be read.
	Interval time.Duration

	// PoolSize is the number of candidates seen, zero when not queried.
	PoolSize int

	// VisitedCount is the size of the visited set after the attempt.
	VisitedCount int

	// Reset is true when the pool was exhausted and the visited set restarted.
	Reset bool

	StartedAt time.Time
	Duration  time.Duration
}

// Skip reasons and failure reasons reported in Outcome.Reason.
const (
	ReasonIntervalNotElapsed = "interval not elapsed"
	ReasonLoadFailed         = "load failed"
	ReasonPoolFailed         = "pool query failed"
	ReasonEmptyPool          = "empty pool"
	ReasonSinkRejected       = "sink rejected image"
	ReasonSaveFailed         = "save failed"
)
