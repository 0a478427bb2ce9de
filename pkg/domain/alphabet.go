// Package domain describes the input space that test cases are drawn from:
// an alphabet of allowed characters plus inclusive length bounds.
package domain

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Alphabet is an ordered set of allowed characters. The runes are kept
// unique and sorted ascending, so index 0 is the simplest (lexicographically
// smallest) character and plain string comparison agrees with the alphabet's
// ordering for strings drawn from it.
type Alphabet struct {
	runes []rune
}

// Named character classes accepted by ParseAlphabet. "phone" matches the
// characters phone-number formatters typically consume.
var namedClasses = map[string]string{
	"digits":    "0123456789",
	"lower":     "abcdefghijklmnopqrstuvwxyz",
	"upper":     "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"letters":   "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"alnum":     "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
	"hex":       "0123456789abcdef",
	"phone":     "0123456789-+() ",
	"printable": printableASCII(),
}

func printableASCII() string {
	var sb strings.Builder
	for r := rune(0x20); r <= 0x7E; r++ {
		sb.WriteRune(r)
	}
	return sb.String()
}

// NewAlphabet builds an alphabet from the given runes. Duplicates are
// removed and the result is sorted. An empty rune set is an error.
func NewAlphabet(runes []rune) (Alphabet, error) {
	seen := mapset.NewThreadUnsafeSet[rune]()
	var unique []rune
	for _, r := range runes {
		if seen.Add(r) {
			unique = append(unique, r)
		}
	}
	if len(unique) == 0 {
		return Alphabet{}, fmt.Errorf("alphabet cannot be empty")
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return Alphabet{runes: unique}, nil
}

// ParseAlphabet parses an alphabet specification. The spec is either the
// name of a character class (see ClassNames) or a charset expression where
// "a-z" denotes an inclusive range, "\-" and "\\" escape the two special
// characters, and every other rune stands for itself.
//
// Examples:
//
//	digits        -> 0123456789
//	0-9a-f        -> lowercase hex
//	0-9\-         -> digits plus a literal hyphen
//	abc           -> exactly a, b and c
func ParseAlphabet(spec string) (Alphabet, error) {
	if spec == "" {
		return Alphabet{}, fmt.Errorf("alphabet specification cannot be empty")
	}

	if class, ok := namedClasses[spec]; ok {
		return NewAlphabet([]rune(class))
	}

	runes := []rune(spec)
	var out []rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' {
			if i+1 >= len(runes) {
				return Alphabet{}, fmt.Errorf("trailing backslash in alphabet spec %q", spec)
			}
			i++
			out = append(out, runes[i])
			continue
		}

		// "x-y" is a range when a start rune precedes the dash and an end
		// rune follows it. A leading or trailing dash is a literal.
		if i+2 < len(runes) && runes[i+1] == '-' && runes[i+2] != '\\' {
			lo, hi := r, runes[i+2]
			if lo > hi {
				return Alphabet{}, fmt.Errorf("invalid range %c-%c in alphabet spec %q", lo, hi, spec)
			}
			for c := lo; c <= hi; c++ {
				out = append(out, c)
			}
			i += 2
			continue
		}

		out = append(out, r)
	}

	return NewAlphabet(out)
}

// ClassNames returns the recognized named character classes, sorted.
func ClassNames() []string {
	names := make([]string, 0, len(namedClasses))
	for name := range namedClasses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of characters in the alphabet.
func (a Alphabet) Len() int {
	return len(a.runes)
}

// Rune returns the character at the given index in the alphabet's ordering.
func (a Alphabet) Rune(i int) rune {
	return a.runes[i]
}

// Runes returns a copy of the alphabet's characters in order.
func (a Alphabet) Runes() []rune {
	out := make([]rune, len(a.runes))
	copy(out, a.runes)
	return out
}

// Contains reports whether r is part of the alphabet.
func (a Alphabet) Contains(r rune) bool {
	i := sort.Search(len(a.runes), func(i int) bool { return a.runes[i] >= r })
	return i < len(a.runes) && a.runes[i] == r
}

// Simplest returns the lexicographically smallest character. This is the
// replacement value the shrinker substitutes when simplifying an input.
func (a Alphabet) Simplest() rune {
	return a.runes[0]
}

// String renders the alphabet as a literal character list.
func (a Alphabet) String() string {
	return string(a.runes)
}
