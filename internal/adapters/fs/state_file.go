package fs

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/afero"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// DefaultStateFileName matches the record name used by earlier releases.
const DefaultStateFileName = "state.json"

// stateRecord is the on-disk layout. last_update is unix seconds as a JSON
// number (fractional part allowed) or null.
type stateRecord struct {
	LastUpdate *float64 `json:"last_update"`
	Visited    []string `json:"visited"`
}

// StateFile implements ports.StateStore using a JSON file.
type StateFile struct {
	fs   afero.Fs
	path string
}

// NewStateFile creates a StateFile for path on fsys.
func NewStateFile(fsys afero.Fs, path string) *StateFile {
	return &StateFile{fs: fsys, path: path}
}

// Load reads the record from disk. Nothing is cached.
func (s *StateFile) Load(ctx context.Context) (domain.RotationState, error) {
	var rec stateRecord
	if err := readJSON(s.fs, s.path, &rec); err != nil {
		return domain.RotationState{}, fmt.Errorf("%w: load state: %w", domain.ErrStorage, err)
	}
	return rec.toDomain(), nil
}

// Save replaces the record atomically.
func (s *StateFile) Save(ctx context.Context, state domain.RotationState) error {
	if err := writeJSONAtomic(s.fs, s.path, newStateRecord(state)); err != nil {
		return fmt.Errorf("%w: save state: %w", domain.ErrStorage, err)
	}
	return nil
}

// EnsureDefault writes the default record if none exists.
// Returns true when a record was created.
func (s *StateFile) EnsureDefault(ctx context.Context) (bool, error) {
	ok, err := fileExists(s.fs, s.path)
	if err != nil {
		return false, fmt.Errorf("%w: stat state: %w", domain.ErrStorage, err)
	}
	if ok {
		return false, nil
	}
	return true, s.Save(ctx, domain.DefaultState())
}

// Path returns the full path to the state file.
func (s *StateFile) Path() string {
	return s.path
}

func newStateRecord(state domain.RotationState) stateRecord {
	rec := stateRecord{Visited: state.Visited}
	if rec.Visited == nil {
		rec.Visited = []string{}
	}
	if state.LastUpdate != nil {
		secs := float64(state.LastUpdate.UnixNano()) / float64(time.Second)
		rec.LastUpdate = &secs
	}
	return rec
}

func (r stateRecord) toDomain() domain.RotationState {
	st := domain.RotationState{Visited: r.Visited}
	if st.Visited == nil {
		st.Visited = []string{}
	}
	if r.LastUpdate != nil {
		whole, frac := math.Modf(*r.LastUpdate)
		t := time.Unix(int64(whole), int64(math.Round(frac*float64(time.Second))))
		st.LastUpdate = &t
	}
	return st
}
