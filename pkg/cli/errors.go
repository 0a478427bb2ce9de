// Package cli maps engine results to exit codes and turns the errors a
// check can produce into actionable terminal messages.
package cli

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/precondition"
	"github.com/fixpoint-sh/fixpoint/pkg/runner"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Exit codes. Scripts distinguish "the property held" from "a
// counterexample was found" from "the check could not run".
const (
	ExitPassed   = 0
	ExitViolated = 1
	ExitError    = 2
)

// ExitCode maps a finished check to its process exit code. An error
// outranks any finding: a run that aborted cannot vouch for the trials
// it never ran.
func ExitCode(err error, failed bool) int {
	switch {
	case err != nil:
		return ExitError
	case failed:
		return ExitViolated
	default:
		return ExitPassed
	}
}

// ErrorFormatter renders errors with enough context to act on them.
type ErrorFormatter struct{}

// NewErrorFormatter creates a new error formatter.
func NewErrorFormatter() *ErrorFormatter {
	return &ErrorFormatter{}
}

var unknownTransformRe = regexp.MustCompile(`unknown transformation "([^"]*)"`)

// FormatError formats an error into a user-facing message.
func (f *ErrorFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var fault *runner.HarnessFault
	if errors.As(err, &fault) {
		return f.formatHarnessFault(fault)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "unknown transformation"):
		return f.formatUnknownTransformation(msg)
	case strings.Contains(msg, "invalid precondition"):
		return f.formatPreconditionError(msg)
	case strings.Contains(msg, "alphabet"):
		return f.formatAlphabetError(msg)
	case strings.Contains(msg, "config file"):
		return fmt.Sprintf("Error: %s\n\nTo write a starting configuration, run:\n  fixpoint check --save-config <path> ...", msg)
	default:
		return fmt.Sprintf("Error: %s", msg)
	}
}

func (f *ErrorFormatter) formatHarnessFault(fault *runner.HarnessFault) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: the transformation faulted at trial %d.\n\n", fault.TrialIndex)
	if fault.Input != "" {
		fmt.Fprintf(&sb, "Input: %s\n", strconv.Quote(fault.Input))
	}
	fmt.Fprintf(&sb, "Cause: %v\n\n", fault.Cause)
	sb.WriteString("A fault is not a verdict on idempotence: the transformation crashed,\n")
	sb.WriteString("exited with an unexpected code, or timed out. Fix the command or raise\n")
	sb.WriteString("--per-trial-timeout, then run the check again.")
	return sb.String()
}

func (f *ErrorFormatter) formatUnknownTransformation(msg string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", msg)

	if m := unknownTransformRe.FindStringSubmatch(msg); m != nil {
		if suggestions := f.SuggestSimilarTransforms(m[1], transform.BuiltinNames()); len(suggestions) > 0 {
			sb.WriteString("\nDid you mean:\n")
			for _, s := range suggestions {
				fmt.Fprintf(&sb, "  %s\n", s)
			}
		}
	}

	sb.WriteString("\nTo list the built-ins, run:\n  fixpoint transforms")
	return sb.String()
}

func (f *ErrorFormatter) formatPreconditionError(msg string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n\n%s\n\nExamples:\n", msg, precondition.Syntax())
	for _, example := range precondition.Examples() {
		fmt.Fprintf(&sb, "  %s\n", example)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *ErrorFormatter) formatAlphabetError(msg string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n\n", msg)
	fmt.Fprintf(&sb, "Character classes: %s\n", strings.Join(domain.ClassNames(), ", "))
	sb.WriteString("Literal charsets list their characters, with a-z ranges and \\- for a dash:\n")
	sb.WriteString(`  fixpoint check --alphabet "0-9\-" ...`)
	return sb.String()
}

// SuggestSimilarTransforms suggests built-in names close to a typo.
func (f *ErrorFormatter) SuggestSimilarTransforms(name string, known []string) []string {
	if len(known) == 0 {
		return nil
	}

	var suggestions []string
	nameLower := strings.ToLower(name)

	for _, candidate := range known {
		candidateLower := strings.ToLower(candidate)

		if nameLower == candidateLower {
			return []string{candidate}
		}
		if strings.HasPrefix(candidateLower, nameLower) || strings.Contains(candidateLower, nameLower) {
			suggestions = append(suggestions, candidate)
			continue
		}
		if levenshteinDistance(nameLower, candidateLower) <= 2 {
			suggestions = append(suggestions, candidate)
		}
	}

	return suggestions
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
