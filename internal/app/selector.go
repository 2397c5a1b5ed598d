package app

import (
	"math/rand/v2"
	"slices"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// Rand is the randomness source used by Select.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the auto-seeded, goroutine-safe top-level generator.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SelectionResult is the outcome of Select.
type SelectionResult struct {
	Chosen      string
	NextVisited []string

	// Reset is true when every pool image had been visited and the visited
	// set started over.
	Reset bool
}

// Select picks the next image from pool, avoiding anything in visited until
// the pool is exhausted. It has no side effects; visited is never modified.
//
// Returns domain.ErrEmptyPool when pool is empty.
func Select(pool, visited []string, rng Rand) (SelectionResult, error) {
	if len(pool) == 0 {
		return SelectionResult{}, domain.ErrEmptyPool
	}

	seen := make(map[string]bool, len(visited))
	for _, v := range visited {
		seen[v] = true
	}

	// Duplicates are collapsed so the draw is uniform over distinct images.
	distinct := make([]string, 0, len(pool))
	unique := make(map[string]bool, len(pool))
	var available []string
	for _, img := range pool {
		if unique[img] {
			continue
		}
		unique[img] = true
		distinct = append(distinct, img)
		if !seen[img] {
			available = append(available, img)
		}
	}

	base := visited
	reset := false
	if len(available) == 0 {
		available = distinct
		base = nil
		reset = true
	}

	chosen := available[rng.IntN(len(available))]

	next := make([]string, 0, len(base)+1)
	next = append(next, base...)
	if !slices.Contains(next, chosen) {
		next = append(next, chosen)
	}

	return SelectionResult{Chosen: chosen, NextVisited: next, Reset: reset}, nil
}
