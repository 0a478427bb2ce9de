package completion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformsListsEveryBuiltin(t *testing.T) {
	p := NewProvider()

	entries := p.Transforms("")
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		name, description, ok := strings.Cut(entry, "\t")
		assert.True(t, ok, "entry %q has no description", entry)
		assert.NotEmpty(t, name)
		assert.NotEmpty(t, description)
	}
}

func TestTransformsFiltersByPrefix(t *testing.T) {
	p := NewProvider()

	entries := p.Transforms("digits")
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.True(t, strings.HasPrefix(entry, "digits"), "entry %q", entry)
	}
	assert.Empty(t, p.Transforms("nope"))
}

func TestAlphabetClassesCarryCharsets(t *testing.T) {
	p := NewProvider()

	entries := p.AlphabetClasses("dig")
	require.Len(t, entries, 1)
	assert.Equal(t, "digits\t0123456789", entries[0])
}

func TestAlphabetClassesTruncateLongCharsets(t *testing.T) {
	p := NewProvider()

	entries := p.AlphabetClasses("printable")
	require.Len(t, entries, 1)
	_, description, _ := strings.Cut(entries[0], "\t")
	assert.LessOrEqual(t, len([]rune(description)), 24)
	assert.True(t, strings.HasSuffix(description, "..."))
}

func TestOutputFormats(t *testing.T) {
	p := NewProvider()

	assert.Equal(t, []string{"json", "table", "yaml"}, p.OutputFormats(""))
	assert.Equal(t, []string{"json"}, p.OutputFormats("j"))
}

func TestReproFormats(t *testing.T) {
	p := NewProvider()

	assert.Equal(t, []string{"go", "python", "shell"}, p.ReproFormats(""))
	assert.Equal(t, []string{"python"}, p.ReproFormats("py"))
}

func TestLogLevels(t *testing.T) {
	p := NewProvider()

	assert.Contains(t, p.LogLevels(""), "debug")
	assert.Equal(t, []string{"warning"}, p.LogLevels("w"))
}

func TestTransports(t *testing.T) {
	p := NewProvider()

	assert.Equal(t, []string{"stdio", "sse"}, p.Transports(""))
	assert.Equal(t, []string{"sse"}, p.Transports("ss"))
}
