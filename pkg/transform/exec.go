package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultInvalidExitCode is the exit code an external command uses to
// signal "invalid input" rather than a failure.
const DefaultInvalidExitCode = 2

// Exec runs an external command as the transformation: the candidate input
// is written to the command's stdin and its stdout (minus one trailing
// newline, the usual text-tool convention) becomes the output. Exit code 0
// is success, the configured invalid exit code maps to InvalidInputError,
// and any other exit status, spawn failure or timeout is a fault.
//
// One process is spawned per invocation, so a million-trial run against a
// slow command is expensive; the optional rate limit keeps such runs from
// monopolizing a shared machine.
type Exec struct {
	argv            []string
	invalidExitCode int
	limiter         *rate.Limiter
}

// ExecOption configures an Exec transformation.
type ExecOption func(*Exec)

// WithInvalidExitCode overrides the exit code recognized as "invalid
// input". The default is DefaultInvalidExitCode.
func WithInvalidExitCode(code int) ExecOption {
	return func(e *Exec) {
		e.invalidExitCode = code
	}
}

// WithRateLimit caps process spawns at perSecond invocations per second.
func WithRateLimit(perSecond float64) ExecOption {
	return func(e *Exec) {
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewExec builds an Exec transformation from an argv vector.
func NewExec(argv []string, opts ...ExecOption) (*Exec, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("exec transformation requires a command")
	}
	e := &Exec{
		argv:            argv,
		invalidExitCode: DefaultInvalidExitCode,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name returns the command's base name.
func (e *Exec) Name() string {
	return filepath.Base(e.argv[0])
}

// Apply runs the command once with input on stdin.
func (e *Exec) Apply(ctx context.Context, input string) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logrus.WithFields(logrus.Fields{
		"command": e.argv[0],
		"bytes":   len(input),
	}).Trace("spawning transformation process")

	err := cmd.Run()
	if err == nil {
		return strings.TrimSuffix(stdout.String(), "\n"), nil
	}

	// The deadline firing surfaces as a killed process; report the timeout
	// itself rather than the secondary exit status.
	if ctx.Err() != nil {
		return "", fmt.Errorf("command %q: %w", e.Name(), ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == e.invalidExitCode {
			return "", &InvalidInputError{Input: input, Reason: strings.TrimSpace(stderr.String())}
		}
		return "", fmt.Errorf("command %q exited with code %d: %s",
			e.Name(), exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}

	return "", fmt.Errorf("command %q: %w", e.Name(), err)
}
