package codegen

import (
	"bytes"
	"fmt"
	"strconv"
)

// PythonEmitter emits a counterexample as a Python 3 script.
type PythonEmitter struct {
	opts Options
}

// NewPythonEmitter creates a new Python script emitter.
func NewPythonEmitter(opts Options) *PythonEmitter {
	return &PythonEmitter{opts: opts}
}

// Emit produces the Python script source.
func (p *PythonEmitter) Emit(r Repro) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("#!/usr/bin/env python3\n")
	fmt.Fprintf(&buf, "# Reproduction for %q.\n", r.name())
	if r.State != "" {
		fmt.Fprintf(&buf, "# Generator state: %s.\n", r.State)
	}
	fmt.Fprintf(&buf, "# Observed: %s -> %s -> %s.\n",
		strconv.Quote(r.Input), strconv.Quote(r.Output1), strconv.Quote(r.Output2))
	buf.WriteString("import subprocess\n")
	buf.WriteString("import sys\n\n")

	if r.Transformation != "" {
		args := []string{p.opts.binary(), "replay", "--transform", r.Transformation, "--input", r.Input}
		fmt.Fprintf(&buf, "result = subprocess.run(%s)\n", pyArgList(args))
		buf.WriteString("sys.exit(result.returncode)\n")
		return buf.String(), nil
	}

	buf.WriteString("# Exits non-zero while the transformation is not idempotent on the input.\n\n")
	buf.WriteString("def apply(text):\n")
	fmt.Fprintf(&buf, "    result = subprocess.run(%s, input=text,\n", pyArgList(r.Command))
	buf.WriteString("                            capture_output=True, text=True, check=True)\n")
	buf.WriteString("    out = result.stdout\n")
	buf.WriteString("    return out[:-1] if out.endswith(\"\\n\") else out\n\n")
	fmt.Fprintf(&buf, "original = %s\n", strconv.Quote(r.Input))
	buf.WriteString("once = apply(original)\n")
	buf.WriteString("twice = apply(once)\n")
	buf.WriteString("if once != twice:\n")
	buf.WriteString("    sys.exit(\"not idempotent: %r -> %r -> %r\" % (original, once, twice))\n")
	buf.WriteString("print(\"idempotent on this input\")\n")
	return buf.String(), nil
}

// pyArgList renders argv as a Python list literal.
func pyArgList(argv []string) string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, arg := range argv {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.Quote(arg))
	}
	buf.WriteString("]")
	return buf.String()
}
