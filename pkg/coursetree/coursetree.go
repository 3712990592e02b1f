// Package coursetree provides a public Go API for filtering course content
// trees and polling for resources that are still being created.
//
// Filtering a parsed tree:
//
//	outline := coursetree.FilterResources(tree, coursetree.Types("videoResource", "image"))
//
// Filtering a serialized tree end to end:
//
//	result, err := coursetree.Filter(ctx, data,
//	    coursetree.WithProfile("text-only"),
//	    coursetree.WithFormat("json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.Output))
//
// Waiting for a resource:
//
//	res, err := coursetree.Poll(ctx, id, store.GetResource, coursetree.WithMaxAttempts(10))
//	if errors.Is(err, coursetree.ErrResourceNotFound) {
//	    // still processing
//	}
package coursetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/coursetree/internal/content"
	"github.com/hupe1980/coursetree/internal/filter"
	"github.com/hupe1980/coursetree/internal/logging"
	"github.com/hupe1980/coursetree/internal/output"
	"github.com/hupe1980/coursetree/internal/poll"
)

// ContentResourceResource is one association in a content tree: a child
// resource linked to its parent at a position.
type ContentResourceResource = content.Association

// ContentResource is the resource embedded in an association.
type ContentResource = content.Resource

// Matcher decides which resource types are removed.
type Matcher = filter.Matcher

// DefaultRemoveType is removed when no matcher is given.
const DefaultRemoveType = filter.DefaultRemoveType

// Type matches exactly one resource type.
func Type(name string) Matcher { return filter.Type(name) }

// Types matches any of the given resource types.
func Types(names ...string) Matcher { return filter.Types(names...) }

// FilterResources removes every association whose resource type matches
// removeTypes, at any depth, and renumbers the survivors of each level
// 0..n-1. A nil matcher removes DefaultRemoveType. The input is not
// modified.
func FilterResources(resources []ContentResourceResource, removeTypes Matcher) []ContentResourceResource {
	return filter.FilterResources(resources, removeTypes)
}

// Parse decodes a content tree from JSON, YAML, or multi-document YAML.
func Parse(data []byte) ([]ContentResourceResource, error) {
	return content.Parse(data)
}

// Option configures Filter.
type Option func(*options)

type options struct {
	removeTypes []string
	profile     string
	profiles    map[string]filter.ProfileConfig
	excludeIDs  []string
	format      string
	indent      int
	logger      *slog.Logger
	err         error
}

// WithRemoveTypes replaces the default removal type.
func WithRemoveTypes(types ...string) Option {
	return func(o *options) { o.removeTypes = types }
}

// WithProfile applies a named filter profile.
func WithProfile(name string) Option { return func(o *options) { o.profile = name } }

// WithCustomProfiles parses custom profile definitions (a YAML document with
// a top-level "profiles" key) for use with WithProfile.
func WithCustomProfiles(data []byte) Option {
	return func(o *options) {
		o.profiles, o.err = filter.ParseCustomProfiles(data)
	}
}

// WithExcludeIDs removes associations by child resource ID.
func WithExcludeIDs(ids ...string) Option { return func(o *options) { o.excludeIDs = ids } }

// WithFormat selects the output format, "yaml" (default) or "json".
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

// WithIndent sets the output indentation width.
func WithIndent(n int) Option { return func(o *options) { o.indent = n } }

// WithLogger sets the logger for the filter pipeline.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// Result holds the output of Filter.
type Result struct {
	// Tree is the filtered tree.
	Tree []ContentResourceResource

	// Output is Tree serialized in the requested format.
	Output []byte

	// Nodes is the number of associations left in Tree.
	Nodes int

	// Removed is the number of associations removed, subtrees included.
	Removed int
}

// Filter parses a serialized content tree, filters it, and serializes the
// result.
func Filter(ctx context.Context, data []byte, opts ...Option) (*Result, error) {
	o := &options{format: output.FormatYAML, indent: 2}
	for _, opt := range opts {
		opt(o)
	}

	if o.err != nil {
		return nil, o.err
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}

	tree, err := content.Parse(data)
	if err != nil {
		return nil, err
	}

	chain, err := o.chain()
	if err != nil {
		return nil, err
	}

	fr, err := chain.Apply(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("filtering tree: %w", err)
	}

	out, err := output.Serialize(fr.Included, output.Options{Format: o.format, Indent: o.indent})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tree:    fr.Included,
		Output:  out,
		Nodes:   content.Count(fr.Included),
		Removed: fr.Removed(),
	}

	o.logger.Debug("tree filtered", slog.Int("nodes", res.Nodes), slog.Int("removed", res.Removed))

	return res, nil
}

func (o *options) chain() (*filter.Chain, error) {
	var filters []filter.Filter

	if o.profile != "" {
		p, err := filter.ResolveProfile(o.profile, o.profiles)
		if err != nil {
			return nil, err
		}

		filters = append(filters, filter.BuildFiltersFromProfile(p)...)
	}

	switch {
	case len(o.removeTypes) > 0:
		filters = append(filters, filter.NewTypeFilter(filter.Types(o.removeTypes...)))
	case o.profile == "":
		filters = append(filters, filter.NewTypeFilter(nil))
	}

	if len(o.excludeIDs) > 0 {
		filters = append(filters, filter.NewResourceIDFilter(o.excludeIDs))
	}

	return filter.NewChain(filters...), nil
}

// ErrResourceNotFound is matched by the error of an exhausted poll.
var ErrResourceNotFound = poll.ErrResourceNotFound

// NotFoundError reports an exhausted poll with the polled ID.
type NotFoundError = poll.NotFoundError

// Sequence is the lazy, single-value result of PollResource.
type Sequence[T any] = poll.Sequence[T]

// PollOption configures a poll.
type PollOption = poll.Option

// Poll schedule options.
var (
	WithMaxAttempts    = poll.WithMaxAttempts
	WithInitialDelay   = poll.WithInitialDelay
	WithDelayIncrement = poll.WithDelayIncrement
	WithPollLogger     = poll.WithLogger
	WithConcurrency    = poll.WithConcurrency
	WithSleep          = poll.WithSleep
)

// PollResource returns a lazy sequence that looks id up with getResource
// until it returns a non-nil value. Nothing runs until the first Next.
func PollResource[T any](id string, getResource func(ctx context.Context, id string) (*T, error), opts ...PollOption) *Sequence[T] {
	return poll.PollResource(id, getResource, opts...)
}

// Poll runs a poll for id to completion.
func Poll[T any](ctx context.Context, id string, getResource func(ctx context.Context, id string) (*T, error), opts ...PollOption) (*T, error) {
	return poll.Poll(ctx, id, getResource, opts...)
}

// PollAll polls every id concurrently and returns the results in order.
func PollAll[T any](ctx context.Context, ids []string, getResource func(ctx context.Context, id string) (*T, error), opts ...PollOption) ([]*T, error) {
	return poll.PollAll(ctx, ids, getResource, opts...)
}

// IsNotFound reports whether err comes from an exhausted poll.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}
