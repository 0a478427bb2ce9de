package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// ShellEmitter emits a counterexample as a POSIX shell script. Command
// transformations are replayed as a pipeline; built-ins shell out to the
// fixpoint binary's replay command.
type ShellEmitter struct {
	opts Options
}

// NewShellEmitter creates a new shell script emitter.
func NewShellEmitter(opts Options) *ShellEmitter {
	return &ShellEmitter{opts: opts}
}

// Emit produces the shell script source.
func (s *ShellEmitter) Emit(r Repro) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&buf, "# Reproduction for %q.\n", r.name())
	if r.State != "" {
		fmt.Fprintf(&buf, "# Generator state: %s.\n", r.State)
	}
	fmt.Fprintf(&buf, "# Observed: %s -> %s -> %s.\n",
		shellQuote(r.Input), shellQuote(r.Output1), shellQuote(r.Output2))

	if r.Transformation != "" {
		fmt.Fprintf(&buf, "exec %s replay --transform %s --input %s\n",
			s.opts.binary(), shellQuote(r.Transformation), shellQuote(r.Input))
		return buf.String(), nil
	}

	command := shellCommand(r.Command)
	buf.WriteString("# Exits 1 while the transformation is not idempotent on the input.\n")
	buf.WriteString("set -eu\n\n")
	fmt.Fprintf(&buf, "input=%s\n", shellQuote(r.Input))
	fmt.Fprintf(&buf, "once=$(printf '%%s' \"$input\" | %s)\n", command)
	fmt.Fprintf(&buf, "twice=$(printf '%%s' \"$once\" | %s)\n\n", command)
	buf.WriteString("if [ \"$once\" != \"$twice\" ]; then\n")
	buf.WriteString("    printf \"not idempotent: '%s' -> '%s' -> '%s'\\n\" \"$input\" \"$once\" \"$twice\" >&2\n")
	buf.WriteString("    exit 1\n")
	buf.WriteString("fi\n")
	buf.WriteString("echo 'idempotent on this input'\n")
	return buf.String(), nil
}

// shellQuote single-quotes a string for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// shellCommand renders command argv as a quoted shell command line.
func shellCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}
