package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validates(t *testing.T) {
	alphabet, err := ParseAlphabet("0-9")
	require.NoError(t, err)

	testCases := []struct {
		name      string
		min       int
		max       int
		expectErr bool
	}{
		{name: "valid bounds", min: 0, max: 14, expectErr: false},
		{name: "equal bounds", min: 5, max: 5, expectErr: false},
		{name: "zero bounds", min: 0, max: 0, expectErr: false},
		{name: "negative minimum", min: -1, max: 5, expectErr: true},
		{name: "max below min", min: 6, max: 5, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(alphabet, tc.min, tc.max)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_EmptyAlphabet(t *testing.T) {
	_, err := New(Alphabet{}, 0, 5)
	assert.Error(t, err)
}

func TestDomain_Contains(t *testing.T) {
	d := MustParse("0-9", 2, 4)

	assert.True(t, d.Contains("12"))
	assert.True(t, d.Contains("1234"))
	assert.False(t, d.Contains("1"), "below minimum length")
	assert.False(t, d.Contains("12345"), "above maximum length")
	assert.False(t, d.Contains("12a4"), "rune outside alphabet")
}

func TestDomain_ContainsCountsRunes(t *testing.T) {
	alphabet, err := NewAlphabet([]rune("日本語"))
	require.NoError(t, err)
	d, err := New(alphabet, 1, 2)
	require.NoError(t, err)

	assert.True(t, d.Contains("日本"), "two runes, six bytes")
	assert.False(t, d.Contains("日本語"))
}

func TestDomain_LengthSpan(t *testing.T) {
	assert.Equal(t, 15, MustParse("digits", 0, 14).LengthSpan())
	assert.Equal(t, 1, MustParse("digits", 0, 0).LengthSpan())
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { MustParse("", 0, 1) })
	assert.Panics(t, func() { MustParse("digits", 3, 1) })
}
