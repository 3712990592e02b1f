package filter

import (
	"slices"
	"strings"
)

// DefaultRemoveType is the resource type removed when no matcher is given.
const DefaultRemoveType = "videoResource"

// Matcher decides whether a resource type is removed from a tree.
type Matcher interface {
	// Match reports whether resources of the given type are removed.
	Match(resourceType string) bool
	// String describes the matcher for logs and exclusion reasons.
	String() string
}

// DefaultMatcher returns the matcher used when none is given.
func DefaultMatcher() Matcher {
	return Type(DefaultRemoveType)
}

// Type returns a matcher that removes resources whose type is exactly name.
func Type(name string) Matcher {
	return typeName(name)
}

type typeName string

func (t typeName) Match(resourceType string) bool {
	return resourceType == string(t)
}

func (t typeName) String() string {
	return "type " + string(t)
}

// Types returns a matcher that removes resources whose type is a member of
// names. A single name still uses the membership test. An empty set
// matches nothing.
func Types(names ...string) Matcher {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return &typeSet{names: slices.Clone(names), set: set}
}

type typeSet struct {
	names []string
	set   map[string]struct{}
}

func (t *typeSet) Match(resourceType string) bool {
	_, ok := t.set[resourceType]
	return ok
}

func (t *typeSet) String() string {
	return "types [" + strings.Join(t.names, ", ") + "]"
}
