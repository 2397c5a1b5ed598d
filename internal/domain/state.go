package domain

import (
	"slices"
	"time"
)

// RotationState is the persisted rotation record.
type RotationState struct {
	// LastUpdate is the time of the last successful rotation; nil means never.
	LastUpdate *time.Time

	// Visited holds the images shown since the last pool reset, in the order
	// they were shown.
	Visited []string
}

// DefaultState returns the record written on first run.
func DefaultState() RotationState {
	return RotationState{Visited: []string{}}
}

// Clone returns a deep copy so callers can mutate it freely.
func (s RotationState) Clone() RotationState {
	out := RotationState{Visited: slices.Clone(s.Visited)}
	if out.Visited == nil {
		out.Visited = []string{}
	}
	if s.LastUpdate != nil {
		t := *s.LastUpdate
		out.LastUpdate = &t
	}
	return out
}

// Elapsed reports whether at least interval has passed since LastUpdate.
// A state that was never updated has always elapsed.
func (s RotationState) Elapsed(now time.Time, interval time.Duration) bool {
	if s.LastUpdate == nil {
		return true
	}
	return now.Sub(*s.LastUpdate) >= interval
}

// Advance records a successful rotation at now.
func (s *RotationState) Advance(now time.Time, visited []string) {
	s.LastUpdate = &now
	s.Visited = visited
}
