package filter

import (
	"context"
	"fmt"

	"github.com/hupe1980/coursetree/internal/content"
)

// TypeFilter removes associations whose resource type is matched.
type TypeFilter struct {
	matcher Matcher
}

// NewTypeFilter creates a filter removing resource types matched by m.
// A nil matcher removes DefaultRemoveType.
func NewTypeFilter(m Matcher) *TypeFilter {
	if m == nil {
		m = DefaultMatcher()
	}

	return &TypeFilter{matcher: m}
}

// Apply filters out associations whose resource type matches.
func (f *TypeFilter) Apply(_ context.Context, tree []content.Association) (*Result, error) {
	r := &Result{}
	r.Included = prune(tree, 0, func(a content.Association) (bool, string) {
		if f.matcher.Match(a.Type()) {
			return true, fmt.Sprintf("excluded by type: %s", a.Type())
		}

		return false, ""
	}, &r.Excluded)

	return r, nil
}

// ResourceIDFilter removes associations whose child resource ID is listed.
type ResourceIDFilter struct {
	ids map[string]bool
}

// NewResourceIDFilter creates a filter removing the given child resource IDs.
func NewResourceIDFilter(ids []string) *ResourceIDFilter {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}

	return &ResourceIDFilter{ids: m}
}

// Apply filters out associations whose resource ID matches.
func (f *ResourceIDFilter) Apply(_ context.Context, tree []content.Association) (*Result, error) {
	r := &Result{}
	r.Included = prune(tree, 0, func(a content.Association) (bool, string) {
		if f.ids[a.ResourceID] {
			return true, fmt.Sprintf("excluded by resource ID: %s", a.ResourceID)
		}

		return false, ""
	}, &r.Excluded)

	return r, nil
}
