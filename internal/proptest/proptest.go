// Package proptest provides gopter parameters and generators shared by the
// property tests that cross-validate fixpoint's engine against an
// independent property-based testing implementation.
package proptest

import (
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// TestParameters returns the standard parameters for property tests.
// Default: 500 iterations as a balance between coverage and speed; the
// engine's own heavy workouts live in the end-to-end tests.
func TestParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	return params
}

// FastTestParameters returns reduced parameters for property tests whose
// individual cases are expensive, such as whole shrink searches.
func FastTestParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	return params
}

// Seed generates arbitrary stream seeds.
func Seed() gopter.Gen {
	return gen.UInt64()
}

// SmallLength generates length bounds small enough to keep trials fast.
func SmallLength() gopter.Gen {
	return gen.IntRange(0, 12)
}

// AlphabetSpec generates valid alphabet specifications covering named
// classes, ranges and escapes.
func AlphabetSpec() gopter.Gen {
	return gen.OneConstOf("digits", "hex", "lower", "phone", "0-9a-f", `0-9\-`, "abc")
}

// DrawCount generates how many cases to draw in a sequence comparison.
func DrawCount() gopter.Gen {
	return gen.IntRange(1, 64)
}

// DigitString generates strings of ASCII digits.
func DigitString() gopter.Gen {
	return gen.NumString()
}
