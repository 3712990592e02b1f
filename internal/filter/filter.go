package filter

import (
	"context"

	"github.com/hupe1980/coursetree/internal/content"
)

// Filter is the interface for all tree filters.
// Filters are stateless. They receive a tree and return a result without
// modifying the input.
type Filter interface {
	// Apply runs the filter on the given tree and returns a result.
	Apply(ctx context.Context, tree []content.Association) (*Result, error)
}

// ExcludedResource records an association that was removed by a filter.
// The subtree below it is removed with it.
type ExcludedResource struct {
	// Association is a deep copy of the removed association as it appeared
	// in the input. Mutating it leaves the input untouched.
	Association content.Association
	// Depth is the level the association was found at (0 = root).
	Depth int
	// Reason is a human-readable explanation for the exclusion.
	Reason string
}

// Result holds the outcome of a filter application.
type Result struct {
	// Included is the filtered tree.
	Included []content.Association
	// Excluded are the associations removed by the filter.
	Excluded []ExcludedResource
}

// Removed returns the number of associations removed, counting the
// subtrees below excluded associations.
func (r *Result) Removed() int {
	n := 0
	for _, ex := range r.Excluded {
		n += 1 + content.Count(ex.Association.Children())
	}

	return n
}

// Chain applies multiple filters sequentially, passing the included tree
// from each filter as input to the next.
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Apply runs all filters in order, accumulating excluded associations.
// An empty chain still renumbers positions and normalizes child lists.
func (c *Chain) Apply(ctx context.Context, tree []content.Association) (*Result, error) {
	combined := &Result{}
	current := prune(tree, 0, keepAll, nil)

	for _, f := range c.filters {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r, err := f.Apply(ctx, current)
		if err != nil {
			return nil, err
		}

		current = r.Included
		combined.Excluded = append(combined.Excluded, r.Excluded...)
	}

	combined.Included = current

	return combined, nil
}

func keepAll(content.Association) (bool, string) {
	return false, ""
}
