package transform

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Builtin transformations let the CLI and the MCP tools demonstrate checks
// without an external command. Most are honestly idempotent; dash-digits
// reproduces the classic formatter bug where re-formatting an already
// formatted value moves the separators, and digits-strict exercises the
// invalid-input path.
var builtins = make(map[string]builtinEntry)

type builtinEntry struct {
	transformation Transformation
	description    string
}

func init() {
	registerBuiltin(NewSimpleFunc("identity", func(s string) string { return s }),
		"returns its input unchanged")
	registerBuiltin(NewSimpleFunc("lower", strings.ToLower),
		"lowercases the input")
	registerBuiltin(NewSimpleFunc("trim", strings.TrimSpace),
		"strips leading and trailing whitespace")
	registerBuiltin(NewSimpleFunc("collapse-spaces", collapseSpaces),
		"squeezes runs of spaces into one")
	registerBuiltin(NewSimpleFunc("digits-only", digitsOnly),
		"drops every non-digit character")
	registerBuiltin(NewSimpleFunc("dash-digits", dashDigits),
		"groups characters with a dash every three positions (deliberately not idempotent)")
	registerBuiltin(NewFunc("digits-strict", digitsStrict),
		"rejects inputs containing non-digits, otherwise unchanged")
}

func registerBuiltin(t Transformation, description string) {
	if _, exists := builtins[t.Name()]; exists {
		panic(fmt.Sprintf("duplicate builtin transformation %q", t.Name()))
	}
	builtins[t.Name()] = builtinEntry{transformation: t, description: description}
}

// Builtin looks up a built-in transformation by name.
func Builtin(name string) (Transformation, error) {
	entry, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformation %q, run 'fixpoint transforms' to list the built-ins", name)
	}
	return entry.transformation, nil
}

// BuiltinNames returns the names of all built-in transformations, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinDescription returns the one-line description of a built-in, or ""
// if the name is unknown.
func BuiltinDescription(name string) string {
	return builtins[name].description
}

var spaceRuns = regexp.MustCompile(` +`)

func collapseSpaces(s string) string {
	return spaceRuns.ReplaceAllString(s, " ")
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// dashDigits inserts a dash after every third character, counting every
// character of its input. Because an inserted dash itself counts on the
// next pass, formatting a formatted value shifts the groups: the same
// failure mode as the phone formatter that motivated this tool.
func dashDigits(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		sb.WriteRune(r)
		if (i+1)%3 == 0 && i != len(runes)-1 {
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

func digitsStrict(_ context.Context, s string) (string, error) {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return "", &InvalidInputError{Input: s, Reason: fmt.Sprintf("character %q is not a digit", r)}
		}
	}
	return s, nil
}
