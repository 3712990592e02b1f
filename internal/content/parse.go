package content

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// docSeparator matches a YAML document separator line.
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// Parse decodes a content tree from JSON or YAML. The input is a sequence
// of associations; multi-document YAML is accepted and the sequences of
// all documents are concatenated in order.
func Parse(data []byte) ([]Association, error) {
	tree := make([]Association, 0)

	for i, doc := range splitDocuments(data) {
		var part []Association
		if err := sigsyaml.Unmarshal(doc, &part); err != nil {
			return nil, fmt.Errorf("parsing document %d: %w", i+1, err)
		}

		tree = append(tree, part...)
	}

	return tree, nil
}

// ParseFile reads and parses the content tree stored at path.
func ParseFile(path string) ([]Association, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided input
	if err != nil {
		return nil, fmt.Errorf("reading content tree: %w", err)
	}

	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tree, nil
}

// splitDocuments returns the non-empty documents of a multi-document
// YAML stream.
func splitDocuments(data []byte) [][]byte {
	var docs [][]byte

	for _, part := range docSeparator.Split(string(data), -1) {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}
