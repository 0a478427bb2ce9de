package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/precondition"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

var errBoom = errors.New("boom")

func digitRunner(t *testing.T, tr transform.Transformation, seed uint64, trials int, opts ...Option) *Runner {
	t.Helper()
	gen := generator.New(domain.MustParse("digits", 1, 8))
	r, err := New(gen, property.NewIdempotence(), tr, generator.NewState(seed), trials, opts...)
	require.NoError(t, err)
	return r
}

// sevenBang misbehaves only on inputs containing a 7: it appends a bang,
// which a second application repeats. The minimal reproduction over the
// digits alphabet is "7" itself.
func sevenBang() transform.Transformation {
	return transform.NewSimpleFunc("seven-bang", func(s string) string {
		if strings.Contains(s, "7") {
			return s + "!"
		}
		return s
	})
}

func TestNewRejectsNonPositiveTrialCount(t *testing.T) {
	gen := generator.New(domain.MustParse("digits", 1, 8))
	for _, trials := range []int{0, -3} {
		r, err := New(gen, property.NewIdempotence(), identity(), generator.NewState(1), trials)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trial count")
		assert.Nil(t, r)
	}
}

func identity() transform.Transformation {
	return transform.NewSimpleFunc("identity", func(s string) string { return s })
}

func TestRunIdempotentTransformationPasses(t *testing.T) {
	r := digitRunner(t, identity(), 1234, 500)

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 500, rep.Trials)
	assert.Equal(t, 500, rep.Passed)
	assert.Zero(t, rep.Skipped)
	assert.Zero(t, rep.Violated)
	assert.Zero(t, rep.Faulted)
	assert.False(t, rep.Failed())
	assert.Empty(t, rep.CounterExamples)
	assert.Empty(t, rep.HarnessFault)
}

func TestRunFindsSeededViolation(t *testing.T) {
	r := digitRunner(t, sevenBang(), 42, 2000)

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	require.True(t, rep.Failed())
	assert.Equal(t, 1, rep.Violated)
	assert.Equal(t, rep.Trials-1, rep.Passed, "stops at the first violation")
	require.Len(t, rep.CounterExamples, 1)

	ce := rep.CounterExamples[0]
	assert.Contains(t, ce.Original, "7")
	assert.Equal(t, "7", ce.Minimal)
	assert.Equal(t, "7!", ce.Output1)
	assert.Equal(t, "7!!", ce.Output2)
	assert.Equal(t, "violated", ce.Kind)
	assert.Equal(t, "minimal", ce.ShrinkStop)
	require.NotEmpty(t, ce.ShrinkPath)
	assert.Equal(t, "7", ce.ShrinkPath[len(ce.ShrinkPath)-1])
	assert.Positive(t, ce.ShrinkIterations)
}

func TestRunSkippedNeverFailsAndNeverShrinks(t *testing.T) {
	tr, err := transform.Builtin("digits-strict")
	require.NoError(t, err)
	gen := generator.New(domain.MustParse("0123456789abc", 1, 6))
	r, err := New(gen, property.NewIdempotence(), tr, generator.NewState(9), 300)
	require.NoError(t, err)

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 300, rep.Trials)
	assert.Positive(t, rep.Skipped)
	assert.Positive(t, rep.Passed)
	assert.Zero(t, rep.Violated)
	assert.Zero(t, rep.Faulted)
	assert.False(t, rep.Failed())
	assert.Empty(t, rep.CounterExamples)
}

func TestRunFaultAbortsRun(t *testing.T) {
	tr := transform.NewFunc("nine-phobic", func(_ context.Context, s string) (string, error) {
		if strings.Contains(s, "9") {
			return "", errBoom
		}
		return s, nil
	})
	r := digitRunner(t, tr, 42, 500)

	rep, err := r.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsHarnessFault(err))
	assert.ErrorIs(t, err, errBoom)

	var fault *HarnessFault
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Input, "9")
	assert.Equal(t, rep.Trials-1, fault.TrialIndex)

	assert.Equal(t, 1, rep.Faulted)
	assert.True(t, rep.Failed())
	assert.NotEmpty(t, rep.HarnessFault)
	require.NotEmpty(t, rep.CounterExamples)
	assert.Equal(t, "faulted", rep.CounterExamples[len(rep.CounterExamples)-1].Kind)
	assert.Equal(t, "boom", rep.CounterExamples[len(rep.CounterExamples)-1].Fault)
}

func TestRunPerTrialTimeoutFaultsHangingTransformation(t *testing.T) {
	hang := transform.NewFunc("hang", func(ctx context.Context, s string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return s, nil
		}
	})
	r := digitRunner(t, hang, 1, 100, WithPerTrialTimeout(50*time.Millisecond))

	rep, err := r.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsHarnessFault(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, rep.Trials)
	assert.Equal(t, 1, rep.Faulted)
}

func TestRunCancellationBetweenTrials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := digitRunner(t, identity(), 1234, 1000, WithProgress(func(p Progress) {
		if p.Trial == 9 {
			cancel()
		}
	}))

	rep, err := r.Run(ctx)

	require.Error(t, err)
	assert.True(t, IsHarnessFault(err))
	assert.ErrorIs(t, err, context.Canceled)

	var fault *HarnessFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, 10, fault.TrialIndex)

	// The partial report survives, and cancellation is not a failure of
	// the transformation.
	assert.Equal(t, 10, rep.Trials)
	assert.Equal(t, 10, rep.Passed)
	assert.False(t, rep.Failed())
	assert.Empty(t, rep.HarnessFault)
}

func TestRunCollectAllShrinksEveryViolation(t *testing.T) {
	tr, err := transform.Builtin("dash-digits")
	require.NoError(t, err)
	gen := generator.New(domain.MustParse("digits", 4, 6))
	r, err := New(gen, property.NewIdempotence(), tr, generator.NewState(5), 5, WithCollectAll())
	require.NoError(t, err)

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, rep.Trials)
	assert.Equal(t, 5, rep.Violated)
	assert.Zero(t, rep.Passed)
	require.Len(t, rep.CounterExamples, 5)
	for _, ce := range rep.CounterExamples {
		assert.Equal(t, "0000", ce.Minimal)
		assert.Equal(t, "minimal", ce.ShrinkStop)
	}
}

func TestRunWithoutShrinkingKeepsOriginal(t *testing.T) {
	tr, err := transform.Builtin("dash-digits")
	require.NoError(t, err)
	gen := generator.New(domain.MustParse("digits", 4, 6))
	r, err := New(gen, property.NewIdempotence(), tr, generator.NewState(5), 10, WithoutShrinking())
	require.NoError(t, err)

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, rep.CounterExamples, 1)
	ce := rep.CounterExamples[0]
	assert.Equal(t, ce.Original, ce.Minimal)
	assert.Empty(t, ce.ShrinkPath)
	assert.Empty(t, ce.ShrinkStop)
}

func TestRunDeterministicAcrossRuns(t *testing.T) {
	type violation struct {
		trial    int
		state    string
		original string
	}
	snapshot := func() ([3]int, []violation) {
		tr, err := transform.Builtin("dash-digits")
		require.NoError(t, err)
		gen := generator.New(domain.MustParse("digits", 1, 8))
		r, err := New(gen, property.NewIdempotence(), tr, generator.NewState(1234), 60,
			WithCollectAll(), WithoutShrinking())
		require.NoError(t, err)

		rep, err := r.Run(context.Background())
		require.NoError(t, err)

		var found []violation
		for _, ce := range rep.CounterExamples {
			found = append(found, violation{ce.TrialIndex, ce.State.String(), ce.Original})
		}
		return [3]int{rep.Passed, rep.Skipped, rep.Violated}, found
	}

	tallies1, found1 := snapshot()
	tallies2, found2 := snapshot()
	assert.Equal(t, tallies1, tallies2)
	assert.Equal(t, found1, found2)
	assert.Positive(t, tallies1[2], "sixty trials over lengths 1..8 include a violating one")
}

func TestRunReplayFromCounterExampleState(t *testing.T) {
	tr, err := transform.Builtin("dash-digits")
	require.NoError(t, err)
	dom := domain.MustParse("digits", 1, 8)

	r, err := New(generator.New(dom), property.NewIdempotence(), tr, generator.NewState(7), 1000, WithoutShrinking())
	require.NoError(t, err)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rep.CounterExamples)
	ce := rep.CounterExamples[0]

	replay, err := New(generator.New(dom), property.NewIdempotence(), tr, ce.State, 1)
	require.NoError(t, err)
	rep2, err := replay.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep2.CounterExamples, 1)
	assert.Equal(t, ce.Original, rep2.CounterExamples[0].Original)
	assert.Equal(t, ce.State, rep2.CounterExamples[0].State)
	assert.Equal(t, 1, rep2.Violated)
}

func TestRunPreconditionSkipsWithoutEvaluating(t *testing.T) {
	filter, err := precondition.Compile(`LengthAtLeast(3)`)
	require.NoError(t, err)

	var applications int
	counted := transform.NewFunc("identity", func(_ context.Context, s string) (string, error) {
		applications++
		return s, nil
	})

	gen := generator.New(domain.MustParse("digits", 1, 4))
	r, err := New(gen, property.NewIdempotence(), counted, generator.NewState(3), 200,
		WithPrecondition(filter))
	require.NoError(t, err)

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 200, rep.Trials)
	assert.Positive(t, rep.Skipped)
	assert.Positive(t, rep.Passed)
	assert.Equal(t, 200, rep.Passed+rep.Skipped)
	assert.Equal(t, 2*rep.Passed, applications, "skipped trials never reach the transformation")
}

func TestRunCollectsStats(t *testing.T) {
	r := digitRunner(t, identity(), 11, 50, WithStats())

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, rep.Stats)
	assert.GreaterOrEqual(t, rep.Stats.InputLengthMean, 1.0)
	assert.LessOrEqual(t, rep.Stats.InputLengthMax, 8)
	assert.GreaterOrEqual(t, rep.Stats.TrialMean, time.Duration(0))
	assert.GreaterOrEqual(t, rep.Stats.TrialP95, time.Duration(0))
}

func TestRunProgressReportsEveryTrial(t *testing.T) {
	var events []Progress
	r := digitRunner(t, sevenBang(), 42, 2000, WithProgress(func(p Progress) {
		events = append(events, p)
	}))

	rep, err := r.Run(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, events)

	var shrinking int
	for _, e := range events {
		assert.Equal(t, 2000, e.Total)
		if e.Shrinking {
			shrinking++
		}
	}
	assert.Equal(t, 1, shrinking)
	// One event per executed trial plus the shrink notification.
	assert.Len(t, events, rep.Trials+1)
	last := events[len(events)-1]
	assert.Equal(t, property.Violated, last.Kind)
}
