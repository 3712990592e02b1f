package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/coursetree/internal/content"
)

// Supported output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Options configures Serialize.
type Options struct {
	// Format is FormatYAML (default) or FormatJSON.
	Format string
	// Indent is the number of spaces per indentation level (default: 2).
	Indent int
}

// DefaultOptions returns YAML with two-space indentation.
func DefaultOptions() Options {
	return Options{Format: FormatYAML, Indent: 2}
}

// ValidateFormat rejects unknown format names.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format %q: must be one of yaml, json", format)
	}
}

// Serialize renders tree in the requested format. A nil tree renders as
// an empty sequence.
func Serialize(tree []content.Association, opts Options) ([]byte, error) {
	if tree == nil {
		tree = []content.Association{}
	}

	return SerializeValue(tree, opts)
}

// SerializeValue renders any value with the rules of Serialize.
func SerializeValue(v any, opts Options) ([]byte, error) {
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}

	if opts.Indent <= 0 {
		opts.Indent = 2
	}

	if opts.Format == FormatJSON {
		data, err := json.MarshalIndent(v, "", strings.Repeat(" ", opts.Indent))
		if err != nil {
			return nil, fmt.Errorf("serializing JSON: %w", err)
		}

		return append(data, '\n'), nil
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(opts.Indent)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	return buf.Bytes(), nil
}
