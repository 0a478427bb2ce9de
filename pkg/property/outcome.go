package property

// Kind classifies the result of one trial.
type Kind int

const (
	// Passed means both applications produced the same output.
	Passed Kind = iota
	// Skipped means the transformation rejected the generated input.
	// Rejected inputs are outside the property's domain, not bugs.
	Skipped
	// Violated means the second application disagreed with the first.
	Violated
	// Faulted means something failed outside the transformation's declared
	// error contract. A fault is fatal to the run.
	Faulted
)

func (k Kind) String() string {
	switch k {
	case Passed:
		return "passed"
	case Skipped:
		return "skipped"
	case Violated:
		return "violated"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of evaluating a property against one input.
// Only the fields belonging to the Kind are populated.
type Outcome struct {
	Kind Kind

	// SkipReason explains why the transformation rejected the input.
	SkipReason string

	// Output1 and Output2 are the observed outputs of the two applications.
	Output1 string
	Output2 string

	// Rejection is set instead of Output2 when the second application
	// rejected Output1 as invalid input.
	Rejection string

	// Cause is the unanticipated error behind a fault.
	Cause error
}

// Pass reports that both applications agreed.
func Pass() Outcome {
	return Outcome{Kind: Passed}
}

// Skip reports that the transformation rejected the input.
func Skip(reason string) Outcome {
	return Outcome{Kind: Skipped, SkipReason: reason}
}

// Violate reports two unequal outputs.
func Violate(output1, output2 string) Outcome {
	return Outcome{Kind: Violated, Output1: output1, Output2: output2}
}

// ViolateRejected reports that the transformation rejected its own output.
// A valid input whose output is not itself acceptable input is the same
// bug class as unequal outputs.
func ViolateRejected(output1, reason string) Outcome {
	return Outcome{Kind: Violated, Output1: output1, Rejection: reason}
}

// Fault reports an error outside the transformation's declared contract.
func Fault(cause error) Outcome {
	return Outcome{Kind: Faulted, Cause: cause}
}

// Failed reports whether the outcome is a counterexample, i.e. Violated or
// Faulted. Passed and Skipped outcomes are never counterexamples.
func (o Outcome) Failed() bool {
	return o.Kind == Violated || o.Kind == Faulted
}
