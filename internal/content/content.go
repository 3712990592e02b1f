// Package content models course content resources and the parent/child
// associations that arrange them into trees.
package content

import (
	"time"
)

// Resource is a piece of course content (a module, a lesson, a video, ...).
type Resource struct {
	// ID is the unique resource identifier.
	ID string `json:"id" yaml:"id"`

	// Type names the kind of content, e.g. "module" or "videoResource".
	Type string `json:"type" yaml:"type"`

	// Fields is an opaque bag of type-specific attributes.
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`

	CreatedAt *time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`

	// Resources are the associations to this resource's children.
	// A nil slice means the children were not loaded or are absent.
	Resources []Association `json:"resources" yaml:"resources"`
}

// Association is one edge of a content tree: the parent ResourceOfID
// contains the child ResourceID at Position among its siblings.
type Association struct {
	ResourceID   string `json:"resourceId" yaml:"resourceId"`
	ResourceOfID string `json:"resourceOfId" yaml:"resourceOfId"`

	// Position is the zero-based ordinal of the child among its siblings.
	Position int `json:"position" yaml:"position"`

	// Metadata is carried through untouched.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	CreatedAt *time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" yaml:"deletedAt,omitempty"`

	// Resource is the embedded child.
	Resource Resource `json:"resource" yaml:"resource"`
}

// Type returns the type of the embedded child resource.
func (a Association) Type() string {
	return a.Resource.Type
}

// Children returns the associations below the embedded child.
func (a Association) Children() []Association {
	return a.Resource.Resources
}

// Walk visits every association of tree depth-first in order. Root-level
// associations have depth 0. Returning an error from fn stops the walk.
func Walk(tree []Association, fn func(a Association, depth int) error) error {
	return walk(tree, 0, fn)
}

func walk(tree []Association, depth int, fn func(Association, int) error) error {
	for _, a := range tree {
		if err := fn(a, depth); err != nil {
			return err
		}

		if err := walk(a.Resource.Resources, depth+1, fn); err != nil {
			return err
		}
	}

	return nil
}

// Count returns the number of associations in tree at all depths.
func Count(tree []Association) int {
	n := 0

	_ = Walk(tree, func(Association, int) error {
		n++
		return nil
	})

	return n
}

// TypeCounts returns how many associations embed a resource of each type.
func TypeCounts(tree []Association) map[string]int {
	counts := make(map[string]int)

	_ = Walk(tree, func(a Association, _ int) error {
		counts[a.Type()]++
		return nil
	})

	return counts
}
