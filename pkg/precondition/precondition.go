// Package precondition compiles filter expressions that restrict which
// generated inputs a check evaluates.
//
// Inputs the filter does not admit are recorded as Skipped, exactly like
// inputs the transformation itself rejects. The expression language:
//   - LengthAtLeast(2), LengthAtMost(10), LengthIs(7): bounds on rune count
//   - Contains("-"), StartsWith("+"), EndsWith("9"): substring anchors
//   - Matches("^[0-9]+$"): RE2 regular expression match
//   - Logical operators: && (and), || (or), ! (not)
//   - Parentheses for grouping: (expr1 || expr2) && expr3
package precondition

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vulcand/predicate"
)

// inputPredicate is a compiled filter over one generated input.
type inputPredicate func(string) bool

// Filter is a compiled precondition expression. A nil Filter admits
// every input.
type Filter struct {
	expr  string
	admit inputPredicate
}

// Compile parses an expression into a Filter.
func Compile(expr string) (*Filter, error) {
	parser, err := predicate.NewParser(predicate.Def{
		Functions: predicateFunctions(),
		Operators: predicateOperators(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	parsed, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid precondition expression: %w", err)
	}

	fn, ok := parsed.(inputPredicate)
	if !ok {
		return nil, fmt.Errorf("precondition must evaluate to boolean, got %T", parsed)
	}

	return &Filter{expr: expr, admit: fn}, nil
}

// Admit reports whether the input satisfies the precondition.
func (f *Filter) Admit(input string) bool {
	if f == nil {
		return true
	}
	return f.admit(input)
}

// Expression returns the source expression, or "" for a nil Filter.
func (f *Filter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// predicateFunctions creates all predicate function definitions.
func predicateFunctions() map[string]any {
	return map[string]any{
		"LengthAtLeast": createLengthAtLeastPredicate(),
		"LengthAtMost":  createLengthAtMostPredicate(),
		"LengthIs":      createLengthIsPredicate(),
		"Contains":      createContainsPredicate(),
		"StartsWith":    createStartsWithPredicate(),
		"EndsWith":      createEndsWithPredicate(),
		"Matches":       createMatchesPredicate(),
	}
}

// predicateOperators creates all logical operator definitions.
func predicateOperators() predicate.Operators {
	return predicate.Operators{
		AND: createAndOperator(),
		OR:  createOrOperator(),
		NOT: createNotOperator(),
	}
}

// Length predicates count runes, not bytes, matching how the generator
// measures the lengths it promises.
func createLengthAtLeastPredicate() func(int) inputPredicate {
	return func(n int) inputPredicate {
		return func(input string) bool {
			return utf8.RuneCountInString(input) >= n
		}
	}
}

func createLengthAtMostPredicate() func(int) inputPredicate {
	return func(n int) inputPredicate {
		return func(input string) bool {
			return utf8.RuneCountInString(input) <= n
		}
	}
}

func createLengthIsPredicate() func(int) inputPredicate {
	return func(n int) inputPredicate {
		return func(input string) bool {
			return utf8.RuneCountInString(input) == n
		}
	}
}

// Substring predicates match case-sensitively; the alphabet distinguishes
// case, so the filter must too.
func createContainsPredicate() func(string) inputPredicate {
	return func(substr string) inputPredicate {
		return func(input string) bool {
			return strings.Contains(input, substr)
		}
	}
}

func createStartsWithPredicate() func(string) inputPredicate {
	return func(prefix string) inputPredicate {
		return func(input string) bool {
			return strings.HasPrefix(input, prefix)
		}
	}
}

func createEndsWithPredicate() func(string) inputPredicate {
	return func(suffix string) inputPredicate {
		return func(input string) bool {
			return strings.HasSuffix(input, suffix)
		}
	}
}

func createMatchesPredicate() func(string) (inputPredicate, error) {
	return func(pattern string) (inputPredicate, error) {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		return func(input string) bool {
			return re.MatchString(input)
		}, nil
	}
}

// Logical operators
func createAndOperator() func(inputPredicate, inputPredicate) inputPredicate {
	return func(a, b inputPredicate) inputPredicate {
		return func(input string) bool {
			return a(input) && b(input)
		}
	}
}

func createOrOperator() func(inputPredicate, inputPredicate) inputPredicate {
	return func(a, b inputPredicate) inputPredicate {
		return func(input string) bool {
			return a(input) || b(input)
		}
	}
}

func createNotOperator() func(inputPredicate) inputPredicate {
	return func(a inputPredicate) inputPredicate {
		return func(input string) bool {
			return !a(input)
		}
	}
}

// Syntax returns a description of the expression language for help text
// and tool descriptions.
func Syntax() string {
	return `Precondition expressions restrict which generated inputs are evaluated:
- Length: LengthAtLeast(2), LengthAtMost(10), LengthIs(7) (counts characters)
- Substrings: Contains("-"), StartsWith("+"), EndsWith("9")
- Patterns: Matches("^[0-9]+$") (RE2 syntax)
- Logical operators: && (and), || (or), ! (not)
- Parentheses for grouping: (expr1 || expr2) && expr3`
}

// Examples returns example expressions.
func Examples() []string {
	return []string{
		`LengthAtLeast(7)`,
		`StartsWith("+") && !Contains(" ")`,
		`Matches("^[0-9]{3}") || LengthAtMost(3)`,
	}
}
