package filter

import (
	"github.com/hupe1980/coursetree/internal/content"
)

// FilterResources returns a copy of resources without the associations whose
// embedded resource type is matched by removeTypes, at every depth. A nil
// matcher removes DefaultRemoveType.
//
// Surviving siblings are renumbered 0..n-1 in their original order at every
// level, and every surviving resource gets a non-nil child list. The input
// is not modified and nothing in the result aliases it.
func FilterResources(resources []content.Association, removeTypes Matcher) []content.Association {
	if removeTypes == nil {
		removeTypes = DefaultMatcher()
	}

	return prune(resources, 0, func(a content.Association) (bool, string) {
		if removeTypes.Match(a.Type()) {
			return true, "excluded by " + removeTypes.String()
		}

		return false, ""
	}, nil)
}

// removeFunc reports whether an association is removed and why.
type removeFunc func(a content.Association) (bool, string)

// prune rebuilds one level of a tree, recursing into survivors. Removed
// associations are appended to excluded when it is non-nil.
func prune(level []content.Association, depth int, remove removeFunc, excluded *[]ExcludedResource) []content.Association {
	out := make([]content.Association, 0, len(level))

	for _, a := range level {
		if drop, reason := remove(a); drop {
			if excluded != nil {
				*excluded = append(*excluded, ExcludedResource{
					Association: a.Clone(),
					Depth:       depth,
					Reason:      reason,
				})
			}

			continue
		}

		node := a.CloneNode()
		node.Resource.Resources = prune(a.Resource.Resources, depth+1, remove, excluded)
		node.Position = len(out)
		out = append(out, node)
	}

	return out
}
