// Package property evaluates a single trial against a transformation and
// classifies the result as Passed, Skipped, Violated or Faulted.
//
// The runner and the shrinker share one evaluation path: the runner calls
// Evaluate on freshly generated inputs, the shrinker calls the same Evaluate
// on reduction candidates to decide whether a failure still reproduces.
package property

import (
	"context"
	"errors"

	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Property decides the outcome of applying a transformation to one input.
type Property interface {
	// Name identifies the property in reports.
	Name() string
	// Evaluate runs the transformation as many times as the property needs
	// and classifies the result. It must not panic; anything unexpected is
	// returned as a Faulted outcome.
	Evaluate(ctx context.Context, tr transform.Transformation, input string) Outcome
}

// Idempotence checks that applying a transformation twice equals applying it
// once. This is the property that catches the reformat-the-reformatted bug:
// a formatter whose output shifts again when fed back into itself.
type Idempotence struct{}

// NewIdempotence returns the idempotence property.
func NewIdempotence() *Idempotence {
	return &Idempotence{}
}

// Name implements Property.
func (p *Idempotence) Name() string {
	return "idempotence"
}

// Evaluate applies the transformation to input and then to its own output.
//
// A rejection of the generated input is a Skip: the input was outside the
// transformation's domain. A rejection of the first output is a violation,
// because a transformation must accept what it produces. Unequal outputs
// are a violation. Every other failure is a fault.
func (p *Idempotence) Evaluate(ctx context.Context, tr transform.Transformation, input string) Outcome {
	output1, err := tr.Apply(ctx, input)
	if err != nil {
		if reason, ok := rejection(err); ok {
			return Skip(reason)
		}
		return Fault(err)
	}

	output2, err := tr.Apply(ctx, output1)
	if err != nil {
		if reason, ok := rejection(err); ok {
			return ViolateRejected(output1, reason)
		}
		return Fault(err)
	}

	if output1 != output2 {
		return Violate(output1, output2)
	}
	return Pass()
}

func rejection(err error) (string, bool) {
	var invalid *transform.InvalidInputError
	if !errors.As(err, &invalid) {
		return "", false
	}
	if invalid.Reason != "" {
		return invalid.Reason, true
	}
	return invalid.Error(), true
}
