package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Format identifies a report rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Encoder renders a report to a writer.
type Encoder interface {
	// Encode renders a single run.
	Encode(w io.Writer, r *RunReport) error
	// EncodeCampaign renders an aggregate of parallel runs.
	EncodeCampaign(w io.Writer, c *CampaignReport) error
}

// EncoderFactory is a function type that creates a new Encoder instance.
type EncoderFactory func() Encoder

// registry maps formats to their corresponding encoder factories.
var registry = make(map[Format]EncoderFactory)

// init registers all built-in encoders.
func init() {
	register(FormatTable, func() Encoder {
		return NewHumanEncoder()
	})
	register(FormatJSON, func() Encoder {
		return jsonEncoder{}
	})
	register(FormatYAML, func() Encoder {
		return yamlEncoder{}
	})
}

// register registers an encoder factory for the specified format.
func register(format Format, factory EncoderFactory) {
	if factory == nil {
		panic(fmt.Sprintf("encoder factory for format %s cannot be nil", format))
	}
	registry[format] = factory
}

// NewEncoder creates an encoder for the specified format.
func NewEncoder(format Format) (Encoder, error) {
	factory, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s (supported: %v)", format, ListFormats())
	}
	return factory(), nil
}

// ValidateFormat checks if the given format is valid.
func ValidateFormat(format string) bool {
	_, ok := registry[Format(format)]
	return ok
}

// ListFormats returns all registered output formats, sorted.
func ListFormats() []string {
	formats := make([]string, 0, len(registry))
	for format := range registry {
		formats = append(formats, string(format))
	}
	sort.Strings(formats)
	return formats
}

type jsonEncoder struct{}

func (jsonEncoder) Encode(w io.Writer, r *RunReport) error {
	return encodeJSON(w, r)
}

func (jsonEncoder) EncodeCampaign(w io.Writer, c *CampaignReport) error {
	return encodeJSON(w, c)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type yamlEncoder struct{}

func (yamlEncoder) Encode(w io.Writer, r *RunReport) error {
	return encodeYAML(w, r)
}

func (yamlEncoder) EncodeCampaign(w io.Writer, c *CampaignReport) error {
	return encodeYAML(w, c)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
