package property

import (
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fixpoint-sh/fixpoint/internal/proptest"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Cross-validates the evaluation path against an independent property-based
// testing library: true projections must never be classified as violations.
func TestIdempotenceAgainstProjections(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property test in short mode")
	}

	properties := gopter.NewProperties(proptest.TestParameters())
	idem := NewIdempotence()

	projections := []transform.Transformation{
		transform.NewSimpleFunc("identity", func(s string) string { return s }),
		transform.NewSimpleFunc("trim", strings.TrimSpace),
		transform.NewSimpleFunc("keep-digits", func(s string) string {
			var sb strings.Builder
			for _, r := range s {
				if unicode.IsDigit(r) {
					sb.WriteRune(r)
				}
			}
			return sb.String()
		}),
	}

	properties.Property("projections always pass", prop.ForAll(
		func(input string, which int) bool {
			outcome := idem.Evaluate(context.Background(), projections[which], input)
			return outcome.Kind == Passed
		},
		gen.AnyString(),
		gen.IntRange(0, len(projections)-1),
	))

	properties.Property("outcome is never a bare zero value for violators", prop.ForAll(
		func(input string) bool {
			dashed, err := transform.Builtin("dash-digits")
			if err != nil {
				return false
			}
			outcome := idem.Evaluate(context.Background(), dashed, input)
			// Inputs of length <= 3 survive unchanged, longer ones gain
			// dashes that shift on the second pass.
			if len([]rune(input)) <= 3 {
				return outcome.Kind == Passed
			}
			return outcome.Kind == Violated && outcome.Output1 != outcome.Output2
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
