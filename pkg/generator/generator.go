package generator

import (
	"strings"

	"github.com/fixpoint-sh/fixpoint/pkg/domain"
)

// TestCase is one sampled input. It is immutable once generated. Before is
// the stream position the case was drawn from: resuming a generator at
// Before reproduces exactly this case, which is how a failing trial is
// replayed without regenerating its prefix.
type TestCase struct {
	Input  string
	Before State
}

// Generator draws test cases from a domain. It holds no mutable state of
// its own; the stream position lives in the State values passed through
// Next, so the same initial State always reproduces the same sequence.
type Generator struct {
	dom domain.Domain
}

// New creates a Generator over the given domain.
func New(dom domain.Domain) *Generator {
	return &Generator{dom: dom}
}

// Domain returns the domain the generator draws from.
func (g *Generator) Domain() domain.Domain {
	return g.dom
}

// Next draws the test case at the given stream position and returns it with
// the advanced State. The procedure is pinned so any implementation of the
// same stream reproduces identical cases: one draw selects the length
// uniformly from [MinLength, MaxLength] by modulo reduction, then one draw
// per character selects its alphabet index, again by modulo reduction.
func (g *Generator) Next(s State) (TestCase, State) {
	before := s

	draw, s := s.next()
	length := g.dom.MinLength + int(draw%uint64(g.dom.LengthSpan()))

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		draw, s = s.next()
		sb.WriteRune(g.dom.Alphabet.Rune(int(draw % uint64(g.dom.Alphabet.Len()))))
	}

	return TestCase{Input: sb.String(), Before: before}, s
}

// Take draws n consecutive test cases starting at s. Convenience for tests
// and for materializing a replay prefix.
func (g *Generator) Take(s State, n int) ([]TestCase, State) {
	cases := make([]TestCase, 0, n)
	for i := 0; i < n; i++ {
		var tc TestCase
		tc, s = g.Next(s)
		cases = append(cases, tc)
	}
	return cases, s
}
