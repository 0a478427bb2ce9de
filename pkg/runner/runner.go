// Package runner drives idempotence checks: it draws inputs from a
// generator, evaluates the property on each, shrinks the failures, and
// folds everything into a report. Property violations are results, not
// errors; the only error Run returns is a HarnessFault.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/precondition"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/report"
	"github.com/fixpoint-sh/fixpoint/pkg/shrinker"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Progress is a snapshot handed to the progress hook after every trial,
// and once more with Shrinking set when a shrink starts.
type Progress struct {
	Trial     int
	Total     int
	Kind      property.Kind
	Input     string
	Shrinking bool
}

// Runner executes a fixed number of trials against one transformation.
// A Runner is immutable after New and safe to reuse; every Run starting
// from the same state produces the same report apart from run identity
// and timing.
type Runner struct {
	gen    *generator.Generator
	prop   property.Property
	tr     transform.Transformation
	start  generator.State
	trials int

	collectAll   bool
	trialTimeout time.Duration
	shrinkBudget int
	noShrink     bool
	precond      *precondition.Filter
	progress     func(Progress)
	withStats    bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithCollectAll keeps running after a violation instead of stopping at
// the first one. Faults still abort the run.
func WithCollectAll() Option {
	return func(r *Runner) {
		r.collectAll = true
	}
}

// WithPerTrialTimeout bounds each property evaluation. A hung
// transformation then surfaces as a fault instead of stalling the run.
func WithPerTrialTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.trialTimeout = d
		}
	}
}

// WithShrinkBudget caps the number of candidate evaluations spent
// shrinking each violation.
func WithShrinkBudget(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.shrinkBudget = n
		}
	}
}

// WithoutShrinking reports violations as found, skipping minimization.
func WithoutShrinking() Option {
	return func(r *Runner) {
		r.noShrink = true
	}
}

// WithPrecondition skips trials whose input the filter does not admit.
func WithPrecondition(f *precondition.Filter) Option {
	return func(r *Runner) {
		r.precond = f
	}
}

// WithProgress registers a hook invoked synchronously from the run loop.
// It must be fast and must not block.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithStats collects input-length and latency statistics for the report.
func WithStats() Option {
	return func(r *Runner) {
		r.withStats = true
	}
}

// New builds a Runner that draws from gen starting at start and checks
// prop against tr for trials trials.
func New(gen *generator.Generator, prop property.Property, tr transform.Transformation, start generator.State, trials int, opts ...Option) (*Runner, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trial count must be positive, got %d", trials)
	}
	r := &Runner{
		gen:    gen,
		prop:   prop,
		tr:     tr,
		start:  start,
		trials: trials,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the trials. It returns a report in every case, including
// faults and cancellation, so partial results are never lost. The error
// is non-nil only for harness faults; a report with violations comes
// back with a nil error and callers consult report.Failed().
func (r *Runner) Run(ctx context.Context) (*report.RunReport, error) {
	rep := report.NewRunReport(r.prop.Name(), r.tr.Name(), r.gen.Domain(), r.start, r.trials)
	started := time.Now()

	logrus.WithFields(logrus.Fields{
		"run":            rep.RunID,
		"transformation": r.tr.Name(),
		"state":          r.start.String(),
		"trials":         r.trials,
	}).Debug("starting run")

	var lengths []int
	var latencies []time.Duration
	if r.withStats {
		lengths = make([]int, 0, r.trials)
		latencies = make([]time.Duration, 0, r.trials)
	}

	finish := func() *report.RunReport {
		rep.Duration = time.Since(started)
		rep.Stats = report.ComputeStats(lengths, latencies)
		rep.SortCounterExamples()
		return rep
	}

	st := r.start
	for trial := 0; trial < r.trials; trial++ {
		if err := ctx.Err(); err != nil {
			return finish(), &HarnessFault{TrialIndex: trial, Cause: err}
		}

		tc, next := r.gen.Next(st)
		st = next

		if !r.precond.Admit(tc.Input) {
			rep.Tally(property.Skipped)
			r.notify(Progress{Trial: trial, Total: r.trials, Kind: property.Skipped, Input: tc.Input})
			continue
		}

		evalStart := time.Now()
		outcome := r.evaluate(ctx, tc.Input)
		if r.withStats {
			lengths = append(lengths, len([]rune(tc.Input)))
			latencies = append(latencies, time.Since(evalStart))
		}

		// A fault observed after the parent context died is the
		// cancellation itself, not the transformation misbehaving.
		if ctx.Err() != nil && outcome.Kind == property.Faulted {
			return finish(), &HarnessFault{TrialIndex: trial, Input: tc.Input, Cause: ctx.Err()}
		}

		rep.Tally(outcome.Kind)
		r.notify(Progress{Trial: trial, Total: r.trials, Kind: outcome.Kind, Input: tc.Input})

		switch outcome.Kind {
		case property.Violated:
			ce := report.NewCounterExample(trial, tc.Before, tc.Input, outcome)
			r.shrink(ctx, trial, tc.Input, outcome, &ce)
			rep.CounterExamples = append(rep.CounterExamples, ce)
			if !r.collectAll {
				return finish(), nil
			}
		case property.Faulted:
			ce := report.NewCounterExample(trial, tc.Before, tc.Input, outcome)
			rep.CounterExamples = append(rep.CounterExamples, ce)
			fault := &HarnessFault{TrialIndex: trial, Input: tc.Input, Cause: outcome.Cause}
			rep.HarnessFault = fault.Error()
			logrus.WithFields(logrus.Fields{
				"run":   rep.RunID,
				"trial": trial,
				"input": tc.Input,
			}).WithError(outcome.Cause).Error("harness fault")
			return finish(), fault
		}
	}

	rep = finish()
	logrus.WithFields(logrus.Fields{
		"run":      rep.RunID,
		"passed":   rep.Passed,
		"skipped":  rep.Skipped,
		"violated": rep.Violated,
	}).Debug("run finished")
	return rep, nil
}

func (r *Runner) evaluate(ctx context.Context, input string) property.Outcome {
	if r.trialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.trialTimeout)
		defer cancel()
	}
	return r.prop.Evaluate(ctx, r.tr, input)
}

func (r *Runner) shrink(ctx context.Context, trial int, input string, outcome property.Outcome, ce *report.CounterExample) {
	logrus.WithFields(logrus.Fields{
		"trial": trial,
		"input": input,
	}).Info("violation found")
	if r.noShrink {
		return
	}
	r.notify(Progress{Trial: trial, Total: r.trials, Kind: outcome.Kind, Input: input, Shrinking: true})

	var opts []shrinker.Option
	if r.shrinkBudget > 0 {
		opts = append(opts, shrinker.WithIterationBudget(r.shrinkBudget))
	}
	if r.trialTimeout > 0 {
		opts = append(opts, shrinker.WithEvalTimeout(r.trialTimeout))
	}
	shr := shrinker.New(r.prop, r.tr, r.gen.Domain(), opts...)
	res := shr.Shrink(ctx, input, outcome)
	ce.SetMinimal(res.Input, res.Outcome, res.Path, res.Iterations, string(res.Stop))
}

func (r *Runner) notify(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}
