// Package shrinker reduces a failing input to a minimal one that still
// reproduces the failure.
//
// The search is a greedy local descent driven by an explicit state machine
// with candidate queues rather than recursion, so the iteration budget and
// cancellation stay enforceable at every step. Candidates are tried
// shortest first and lexicographically within a length, which makes each
// accepted reduction the preferred one among all candidates that reproduce.
package shrinker

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// DefaultIterationBudget bounds how many candidates a shrink may evaluate.
const DefaultIterationBudget = 2000

// StopReason records why a shrink ended.
type StopReason string

const (
	// StopMinimal means no single-step reduction reproduced the failure.
	StopMinimal StopReason = "minimal"
	// StopBudget means the iteration budget ran out first.
	StopBudget StopReason = "budget"
	// StopCancelled means the context was cancelled mid-search.
	StopCancelled StopReason = "cancelled"
)

// Result is the outcome of a shrink. Input is never longer than the input
// the shrink started from, and Outcome is the outcome observed on it; if
// nothing smaller reproduced, both are the originals unchanged.
type Result struct {
	Input      string
	Outcome    property.Outcome
	Path       []string
	Iterations int
	Stop       StopReason
}

// Shrinker searches the reduction space of one property and transformation.
type Shrinker struct {
	prop    property.Property
	tr      transform.Transformation
	dom     domain.Domain
	budget  int
	timeout time.Duration
}

// Option configures a Shrinker.
type Option func(*Shrinker)

// WithIterationBudget overrides the candidate evaluation budget.
// Non-positive values keep the default.
func WithIterationBudget(n int) Option {
	return func(s *Shrinker) {
		if n > 0 {
			s.budget = n
		}
	}
}

// WithEvalTimeout bounds each candidate evaluation, converting a hanging
// transformation into a Faulted outcome instead of a stuck shrink.
func WithEvalTimeout(d time.Duration) Option {
	return func(s *Shrinker) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Shrinker for the given property and transformation. The
// domain supplies the alphabet whose simplest rune replacement candidates
// are built from.
func New(prop property.Property, tr transform.Transformation, dom domain.Domain, opts ...Option) *Shrinker {
	s := &Shrinker{
		prop:   prop,
		tr:     tr,
		dom:    dom,
		budget: DefaultIterationBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// search states. Searching drains the current queue; Reducing rebuilds it
// on a freshly accepted candidate; Exhausted and Done are terminal.
type state int

const (
	stateSearching state = iota
	stateReducing
	stateExhausted
	stateDone
)

// Shrink reduces input to a minimal reproduction of its failure. It always
// returns a result: if no candidate reproduces, or the budget or context
// runs out immediately, the result is the original input and outcome. If
// the original outcome is not Violated or Faulted there is nothing to
// reproduce and the original is returned as-is.
func (s *Shrinker) Shrink(ctx context.Context, input string, original property.Outcome) Result {
	res := Result{Input: input, Outcome: original, Stop: StopMinimal}
	if !original.Failed() {
		return res
	}

	seen := mapset.NewThreadUnsafeSet(input)
	queue := s.candidates(input)

	st := stateSearching
	for {
		switch st {
		case stateSearching:
			if ctx.Err() != nil {
				res.Stop = StopCancelled
				st = stateDone
				continue
			}
			if res.Iterations >= s.budget {
				res.Stop = StopBudget
				st = stateDone
				continue
			}
			if len(queue) == 0 {
				st = stateExhausted
				continue
			}

			candidate := queue[0]
			queue = queue[1:]
			if !seen.Add(candidate) {
				continue
			}

			outcome := s.evaluate(ctx, candidate)
			res.Iterations++
			if ctx.Err() != nil {
				// The evaluation may have been cut short; its outcome
				// cannot be trusted as a reproduction.
				res.Stop = StopCancelled
				st = stateDone
				continue
			}
			if outcome.Failed() {
				res.Input = candidate
				res.Outcome = outcome
				res.Path = append(res.Path, candidate)
				logrus.WithFields(logrus.Fields{
					"length":     utf8.RuneCountInString(candidate),
					"iterations": res.Iterations,
				}).Trace("accepted shrink candidate")
				st = stateReducing
			}

		case stateReducing:
			queue = s.candidates(res.Input)
			st = stateSearching

		case stateExhausted:
			res.Stop = StopMinimal
			logrus.WithFields(logrus.Fields{
				"iterations": res.Iterations,
				"steps":      len(res.Path),
			}).Debug("shrink reached a local minimum")
			return res

		case stateDone:
			logrus.WithFields(logrus.Fields{
				"iterations": res.Iterations,
				"steps":      len(res.Path),
				"stop":       res.Stop,
			}).Debug("shrink stopped early")
			return res
		}
	}
}

func (s *Shrinker) evaluate(ctx context.Context, input string) property.Outcome {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.prop.Evaluate(ctx, s.tr, input)
}

// candidates builds one round of single-step reductions of base: truncations
// from either end, interior span removals (halving windows plus every single
// rune), and replacements with the simplest alphabet rune. The queue is
// ordered shortest first, then lexicographically, so the search tries the
// most preferred reductions before the rest.
func (s *Shrinker) candidates(base string) []string {
	runes := []rune(base)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var cands []string

	for k := 1; k <= n; k++ {
		cands = append(cands, string(runes[k:]), string(runes[:n-k]))
	}

	for width := n / 2; width >= 2; width /= 2 {
		for start := 1; start+width < n; start++ {
			cands = append(cands, string(runes[:start])+string(runes[start+width:]))
		}
	}
	for i := 1; i < n-1; i++ {
		cands = append(cands, string(runes[:i])+string(runes[i+1:]))
	}

	simplest := s.dom.Alphabet.Simplest()
	if all := strings.Repeat(string(simplest), n); all != base {
		cands = append(cands, all)
	}
	for i := 0; i < n; i++ {
		if runes[i] == simplest {
			continue
		}
		replaced := make([]rune, n)
		copy(replaced, runes)
		replaced[i] = simplest
		cands = append(cands, string(replaced))
	}

	sort.Slice(cands, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(cands[i]), utf8.RuneCountInString(cands[j])
		if li != lj {
			return li < lj
		}
		return cands[i] < cands[j]
	})
	return cands
}
