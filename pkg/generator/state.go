// Package generator produces deterministic, replayable sequences of test
// inputs from a configured domain. The pseudo-random stream is splitmix64,
// chosen because its state is a single value that advances by a fixed
// increment: the position after any number of draws is computable in O(1),
// which makes every point of a run addressable and resumable.
package generator

import (
	"fmt"
	"strconv"
	"strings"
)

// splitmix64 constants. The mix function is the finalizer from Steele,
// Lea and Flood, "Fast Splittable Pseudorandom Number Generators".
const (
	gamma = 0x9E3779B97F4A7C15
	mixA  = 0xBF58476D1CE4E5B9
	mixB  = 0x94D049BB133111EB
)

// State is the complete position of a generator stream: the seed that
// started it and the number of draws consumed so far. Two States are
// interchangeable exactly when both fields match. The zero draws State of
// a seed is the beginning of that seed's sequence.
//
// State is a plain value; it is never mutated in place. Next returns the
// advanced copy, so callers thread it explicitly through their loop.
type State struct {
	Seed  uint64 `json:"seed" yaml:"seed"`
	Draws uint64 `json:"draws" yaml:"draws"`
}

// NewState returns the start-of-stream State for a seed.
func NewState(seed uint64) State {
	return State{Seed: seed}
}

// next returns the draw at the State's position and the advanced State.
// Draw n of a seed is mix(seed + n*gamma), n counted from 1.
func (s State) next() (uint64, State) {
	s.Draws++
	return mix(s.Seed + s.Draws*gamma), s
}

func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * mixA
	z = (z ^ (z >> 27)) * mixB
	return z ^ (z >> 31)
}

// DeriveSeed maps an arbitrary base seed and run index to an independent
// seed. Parallel campaigns use it so every run draws from its own stream.
func DeriveSeed(base uint64, index uint64) uint64 {
	return mix(base + (index+1)*gamma)
}

// String renders the State in the canonical "seed:draws" form accepted by
// ParseState, e.g. "1234:56".
func (s State) String() string {
	return fmt.Sprintf("%d:%d", s.Seed, s.Draws)
}

// ParseState parses the "seed:draws" form produced by State.String. A bare
// integer is accepted as a seed at the start of its stream.
func ParseState(text string) (State, error) {
	seedPart, drawsPart, found := strings.Cut(text, ":")
	seed, err := strconv.ParseUint(seedPart, 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("invalid state %q: %w", text, err)
	}
	if !found {
		return State{Seed: seed}, nil
	}
	draws, err := strconv.ParseUint(drawsPart, 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("invalid state %q: %w", text, err)
	}
	return State{Seed: seed, Draws: draws}, nil
}
