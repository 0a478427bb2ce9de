package runner

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fixpoint-sh/fixpoint/internal/proptest"
	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
)

func TestRunnerProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property tests in short mode")
	}

	parameters := proptest.FastTestParameters()
	properties := gopter.NewProperties(parameters)

	dom := domain.MustParse("digits", 1, 8)

	properties.Property("idempotent transformations never violate", prop.ForAll(
		func(seed uint64) bool {
			r, err := New(generator.New(dom), property.NewIdempotence(), identity(),
				generator.NewState(seed), 30)
			if err != nil {
				return false
			}
			rep, err := r.Run(context.Background())
			return err == nil && rep.Violated == 0 && rep.Faulted == 0 && rep.Trials == 30
		},
		gen.UInt64(),
	))

	properties.Property("violations replay from their recorded state", prop.ForAll(
		func(seed uint64) bool {
			r, err := New(generator.New(dom), property.NewIdempotence(), sevenBang(),
				generator.NewState(seed), 40, WithoutShrinking())
			if err != nil {
				return false
			}
			rep, err := r.Run(context.Background())
			if err != nil {
				return false
			}
			if len(rep.CounterExamples) == 0 {
				return true
			}
			ce := rep.CounterExamples[0]

			replay, err := New(generator.New(dom), property.NewIdempotence(), sevenBang(),
				ce.State, 1)
			if err != nil {
				return false
			}
			rep2, err := replay.Run(context.Background())
			if err != nil || len(rep2.CounterExamples) != 1 {
				return false
			}
			return rep2.CounterExamples[0].Original == ce.Original
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
