// Package codegen renders found counterexamples as runnable reproduction
// snippets. It supports emitting a Go regression test, a shell script, or
// a Python script from a counterexample's input and observed outputs.
package codegen

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// OutputFormat represents the target language for a reproduction snippet.
type OutputFormat string

const (
	FormatGo     OutputFormat = "go"
	FormatShell  OutputFormat = "shell"
	FormatPython OutputFormat = "python"
)

// Repro describes one reproduction: the transformation under test and the
// failing input with the chain observed on it.
type Repro struct {
	// Transformation is the built-in transformation name. Empty when the
	// transformation is an external command.
	Transformation string

	// Command is the external command checked as the transformation.
	Command []string

	// Input is the failing input, normally the minimal one.
	Input string

	// Output1 and Output2 are the observed first and second applications.
	Output1 string
	Output2 string

	// State is the generator position that produced the original input,
	// recorded in the snippet header for auditability.
	State string
}

func (r Repro) validate() error {
	if r.Transformation == "" && len(r.Command) == 0 {
		return fmt.Errorf("repro needs a transformation name or a command")
	}
	if r.Transformation != "" && len(r.Command) > 0 {
		return fmt.Errorf("repro cannot have both a transformation name and a command")
	}
	return nil
}

// name returns a human label for the transformation under test.
func (r Repro) name() string {
	if r.Transformation != "" {
		return r.Transformation
	}
	return strings.Join(r.Command, " ")
}

// Options contains configuration for snippet emission.
type Options struct {
	// Binary is the fixpoint binary name used in emitted snippets that
	// shell out to it. Empty means "fixpoint".
	Binary string
}

func (o Options) binary() string {
	if o.Binary == "" {
		return "fixpoint"
	}
	return o.Binary
}

// Emitter defines the interface for reproduction snippet emission.
type Emitter interface {
	// Emit produces a runnable snippet reproducing the counterexample.
	Emit(r Repro) (string, error)
}

// EmitterFactory is a function type that creates a new Emitter instance.
type EmitterFactory func(opts Options) Emitter

// registry maps output formats to their corresponding emitter factories.
var registry = make(map[OutputFormat]EmitterFactory)

// init registers all built-in snippet emitters.
func init() {
	register(FormatGo, func(opts Options) Emitter {
		return NewGoEmitter(opts)
	})
	register(FormatShell, func(opts Options) Emitter {
		return NewShellEmitter(opts)
	})
	register(FormatPython, func(opts Options) Emitter {
		return NewPythonEmitter(opts)
	})
}

// register registers a new emitter factory for the specified format.
func register(format OutputFormat, factory EmitterFactory) {
	if factory == nil {
		panic(fmt.Sprintf("emitter factory for format %s cannot be nil", format))
	}
	registry[format] = factory
}

// NewEmitter creates a new snippet emitter for the specified format.
func NewEmitter(format OutputFormat, opts Options) (Emitter, error) {
	factory, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s (supported: %v)", format, ListFormats())
	}
	return factory(opts), nil
}

// ValidateFormat checks if the given format is valid.
func ValidateFormat(format string) bool {
	_, ok := registry[OutputFormat(format)]
	return ok
}

// ListFormats returns all registered output formats, sorted.
func ListFormats() []string {
	formats := make([]string, 0, len(registry))
	for format := range registry {
		formats = append(formats, string(format))
	}
	sort.Strings(formats)
	return formats
}

// exportedName turns a transformation name into an exported Go identifier:
// "dash-digits" becomes "DashDigits".
func exportedName(name string) string {
	var sb strings.Builder
	upperNext := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if sb.Len() == 0 && unicode.IsDigit(r) {
			sb.WriteString("X")
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return "Transformation"
	}
	return sb.String()
}
