// Package completion provides shell completion values for fixpoint flags.
package completion

import (
	"strings"

	"github.com/fixpoint-sh/fixpoint/pkg/codegen"
	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/mcp"
	"github.com/fixpoint-sh/fixpoint/pkg/report"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Provider provides completion suggestions for flag values. Entries use
// cobra's "value\tdescription" convention where a description exists.
type Provider struct{}

// NewProvider creates a new completion provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Transforms returns built-in transformation names with descriptions.
func (p *Provider) Transforms(prefix string) []string {
	var matches []string
	for _, name := range transform.BuiltinNames() {
		if matchesPrefix(name, prefix) {
			matches = append(matches, name+"\t"+transform.BuiltinDescription(name))
		}
	}
	return matches
}

// AlphabetClasses returns named character classes with their charsets.
// Literal charsets complete to nothing; only the class names are
// enumerable.
func (p *Provider) AlphabetClasses(prefix string) []string {
	var matches []string
	for _, name := range domain.ClassNames() {
		if !matchesPrefix(name, prefix) {
			continue
		}
		alphabet, err := domain.ParseAlphabet(name)
		if err != nil {
			continue
		}
		matches = append(matches, name+"\t"+truncate(alphabet.String(), 24))
	}
	return matches
}

// OutputFormats returns the report output formats.
func (p *Provider) OutputFormats(prefix string) []string {
	return filterPrefix(report.ListFormats(), prefix)
}

// ReproFormats returns the reproduction snippet formats.
func (p *Provider) ReproFormats(prefix string) []string {
	return filterPrefix(codegen.ListFormats(), prefix)
}

// LogLevels returns the accepted log level names.
func (p *Provider) LogLevels(prefix string) []string {
	return filterPrefix([]string{"debug", "info", "warning", "error"}, prefix)
}

// Transports returns the MCP server transports.
func (p *Provider) Transports(prefix string) []string {
	return filterPrefix([]string{string(mcp.TransportStdio), string(mcp.TransportSSE)}, prefix)
}

// filterPrefix keeps the values matching the given prefix.
func filterPrefix(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if matchesPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}

// matchesPrefix checks if a string matches the given prefix.
func matchesPrefix(s, prefix string) bool {
	return prefix == "" || strings.HasPrefix(s, prefix)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
