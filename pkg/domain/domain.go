package domain

import (
	"fmt"
	"unicode/utf8"
)

// Domain is the configured input space for one run: which characters may
// appear and how long a generated input may be. Lengths are counted in
// runes, not bytes. A Domain is immutable for the duration of a run.
type Domain struct {
	Alphabet  Alphabet
	MinLength int
	MaxLength int
}

// New builds a Domain and validates its invariants: the alphabet is
// non-empty and 0 <= MinLength <= MaxLength.
func New(alphabet Alphabet, minLength, maxLength int) (Domain, error) {
	d := Domain{Alphabet: alphabet, MinLength: minLength, MaxLength: maxLength}
	if err := d.Validate(); err != nil {
		return Domain{}, err
	}
	return d, nil
}

// MustParse builds a Domain from an alphabet spec and length bounds,
// panicking on invalid input. Intended for tests and fixed fixtures.
func MustParse(alphabetSpec string, minLength, maxLength int) Domain {
	alphabet, err := ParseAlphabet(alphabetSpec)
	if err != nil {
		panic(err)
	}
	d, err := New(alphabet, minLength, maxLength)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks the Domain's invariants.
func (d Domain) Validate() error {
	if d.Alphabet.Len() == 0 {
		return fmt.Errorf("alphabet cannot be empty")
	}
	if d.MinLength < 0 {
		return fmt.Errorf("minimum length cannot be negative, got %d", d.MinLength)
	}
	if d.MaxLength < d.MinLength {
		return fmt.Errorf("maximum length %d is below minimum length %d", d.MaxLength, d.MinLength)
	}
	return nil
}

// LengthSpan returns the number of admissible lengths, MaxLength-MinLength+1.
func (d Domain) LengthSpan() int {
	return d.MaxLength - d.MinLength + 1
}

// Contains reports whether s is a member of the domain: its rune count is
// within bounds and every rune belongs to the alphabet.
func (d Domain) Contains(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < d.MinLength || n > d.MaxLength {
		return false
	}
	for _, r := range s {
		if !d.Alphabet.Contains(r) {
			return false
		}
	}
	return true
}

// String renders the domain for logs and reports.
func (d Domain) String() string {
	return fmt.Sprintf("alphabet=%q lengths=[%d,%d]", d.Alphabet.String(), d.MinLength, d.MaxLength)
}
