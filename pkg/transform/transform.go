// Package transform defines the contract between the harness and the
// transformation under test. The harness treats a transformation as an
// opaque function from string to string with a two-valued error contract:
// it may reject an input as invalid (expected, the trial is skipped), and
// every other failure is an unanticipated fault.
package transform

import "context"

// Transformation is the function under test. Apply must be safe for
// concurrent use: parallel campaign workers share one instance. The context
// carries the harness's per-invocation deadline; implementations that can
// block should honor it.
//
// Apply returns the transformed output, or an *InvalidInputError when the
// input is outside the transformation's domain, or any other error for a
// genuine fault. The harness distinguishes exactly those three cases.
type Transformation interface {
	Name() string
	Apply(ctx context.Context, input string) (string, error)
}

// Func adapts a plain function into a Transformation.
type Func struct {
	name string
	fn   func(context.Context, string) (string, error)
}

// NewFunc wraps fn as a named Transformation.
func NewFunc(name string, fn func(context.Context, string) (string, error)) *Func {
	return &Func{name: name, fn: fn}
}

// NewSimpleFunc wraps a context-free, error-free function. Useful for pure
// string transformations in tests and built-ins.
func NewSimpleFunc(name string, fn func(string) string) *Func {
	return &Func{
		name: name,
		fn: func(_ context.Context, input string) (string, error) {
			return fn(input), nil
		},
	}
}

// Name returns the transformation's display name.
func (f *Func) Name() string {
	return f.name
}

// Apply invokes the wrapped function.
func (f *Func) Apply(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}
