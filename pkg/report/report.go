// Package report collects the results of a run and renders them for humans
// and machines.
//
// The runner fills a RunReport as trials execute; rendering never mutates
// it. Aggregation across parallel runs also lives here, not in the runner.
package report

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
)

// CounterExample is a failing input together with everything needed to
// understand and replay it: the generator state it was drawn from, the
// minimal reduction, and the observed application chain for the minimal
// input.
type CounterExample struct {
	TrialIndex int             `json:"trial" yaml:"trial"`
	State      generator.State `json:"state" yaml:"state"`
	Original   string          `json:"original" yaml:"original"`
	Minimal    string          `json:"minimal" yaml:"minimal"`
	Kind       string          `json:"kind" yaml:"kind"`

	// Chain observed on the minimal input.
	Output1   string `json:"output1,omitempty" yaml:"output1,omitempty"`
	Output2   string `json:"output2,omitempty" yaml:"output2,omitempty"`
	Rejection string `json:"rejection,omitempty" yaml:"rejection,omitempty"`
	Fault     string `json:"fault,omitempty" yaml:"fault,omitempty"`

	ShrinkPath       []string `json:"shrinkPath,omitempty" yaml:"shrinkPath,omitempty"`
	ShrinkIterations int      `json:"shrinkIterations,omitempty" yaml:"shrinkIterations,omitempty"`
	ShrinkStop       string   `json:"shrinkStop,omitempty" yaml:"shrinkStop,omitempty"`
}

// NewCounterExample records a failing trial before any shrinking: the
// minimal input starts out as the original and the chain is the one
// observed on it.
func NewCounterExample(trial int, before generator.State, input string, outcome property.Outcome) CounterExample {
	ce := CounterExample{
		TrialIndex: trial,
		State:      before,
		Original:   input,
		Minimal:    input,
	}
	ce.setOutcome(outcome)
	return ce
}

// SetMinimal replaces the minimal input and its observed chain once a
// shrink has finished.
func (ce *CounterExample) SetMinimal(minimal string, outcome property.Outcome, path []string, iterations int, stop string) {
	ce.Minimal = minimal
	ce.ShrinkPath = path
	ce.ShrinkIterations = iterations
	ce.ShrinkStop = stop
	ce.setOutcome(outcome)
}

func (ce *CounterExample) setOutcome(outcome property.Outcome) {
	ce.Kind = outcome.Kind.String()
	ce.Output1 = outcome.Output1
	ce.Output2 = outcome.Output2
	ce.Rejection = outcome.Rejection
	if outcome.Cause != nil {
		ce.Fault = outcome.Cause.Error()
	} else {
		ce.Fault = ""
	}
}

// RunReport is the aggregate of one run.
type RunReport struct {
	RunID          string          `json:"runId" yaml:"runId"`
	Property       string          `json:"property" yaml:"property"`
	Transformation string          `json:"transformation" yaml:"transformation"`
	Domain         string          `json:"domain" yaml:"domain"`
	Alphabet       string          `json:"alphabet" yaml:"alphabet"`
	MinLength      int             `json:"minLength" yaml:"minLength"`
	MaxLength      int             `json:"maxLength" yaml:"maxLength"`
	State          generator.State `json:"state" yaml:"state"`
	TrialCount     int             `json:"trialCount" yaml:"trialCount"`

	Trials   int `json:"trials" yaml:"trials"`
	Passed   int `json:"passed" yaml:"passed"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Violated int `json:"violated" yaml:"violated"`
	Faulted  int `json:"faulted" yaml:"faulted"`

	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration `json:"durationNanos" yaml:"durationNanos"`

	CounterExamples []CounterExample `json:"counterExamples,omitempty" yaml:"counterExamples,omitempty"`
	Stats           *Stats           `json:"stats,omitempty" yaml:"stats,omitempty"`

	// HarnessFault carries the message of the fault that aborted the run,
	// if one did.
	HarnessFault string `json:"harnessFault,omitempty" yaml:"harnessFault,omitempty"`
}

// NewRunReport starts a report for a run beginning at the given generator
// state.
func NewRunReport(propertyName, transformation string, dom domain.Domain, state generator.State, trialCount int) *RunReport {
	return &RunReport{
		RunID:          uuid.NewString(),
		Property:       propertyName,
		Transformation: transformation,
		Domain:         dom.String(),
		Alphabet:       dom.Alphabet.String(),
		MinLength:      dom.MinLength,
		MaxLength:      dom.MaxLength,
		State:          state,
		TrialCount:     trialCount,
		StartedAt:      time.Now().UTC(),
	}
}

// Tally counts one trial outcome.
func (r *RunReport) Tally(kind property.Kind) {
	r.Trials++
	switch kind {
	case property.Passed:
		r.Passed++
	case property.Skipped:
		r.Skipped++
	case property.Violated:
		r.Violated++
	case property.Faulted:
		r.Faulted++
	}
}

// Failed reports whether the run found any violation or fault.
func (r *RunReport) Failed() bool {
	return r.Violated > 0 || r.Faulted > 0
}

// Best returns the preferred counterexample: shortest minimal input,
// breaking ties lexicographically, or nil if the run found none.
func (r *RunReport) Best() *CounterExample {
	if len(r.CounterExamples) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(r.CounterExamples); i++ {
		if lessCounterExample(&r.CounterExamples[i], &r.CounterExamples[best]) {
			best = i
		}
	}
	return &r.CounterExamples[best]
}

func lessCounterExample(a, b *CounterExample) bool {
	la, lb := utf8.RuneCountInString(a.Minimal), utf8.RuneCountInString(b.Minimal)
	if la != lb {
		return la < lb
	}
	return a.Minimal < b.Minimal
}

// SortCounterExamples orders counterexamples by preference, shortest
// minimal input first.
func (r *RunReport) SortCounterExamples() {
	sort.SliceStable(r.CounterExamples, func(i, j int) bool {
		return lessCounterExample(&r.CounterExamples[i], &r.CounterExamples[j])
	})
}
