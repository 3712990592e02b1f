package filter

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"sigs.k8s.io/yaml"
)

// ProfileConfig describes a reusable set of filter rules that can be
// applied by name via --profile.
type ProfileConfig struct {
	// RemoveTypes lists resource types to remove.
	RemoveTypes []string `json:"removeTypes,omitempty"`
	// ExcludeIDs lists child resource IDs to remove.
	ExcludeIDs []string `json:"excludeIds,omitempty"`
	// Extends names a built-in profile to extend with these additional rules.
	Extends string `json:"extends,omitempty"`
}

// builtinProfiles contains the built-in profile definitions.
var builtinProfiles = map[string]ProfileConfig{
	// outline is the default: the course structure without attached videos.
	"outline": {
		RemoveTypes: []string{DefaultRemoveType},
	},
	"text-only": {
		RemoveTypes: []string{DefaultRemoveType, "audioResource", "image"},
	},
	"none": {},
}

// BuiltinProfileNames returns the names of all built-in profiles, sorted.
func BuiltinProfileNames() []string {
	return slices.Sorted(maps.Keys(builtinProfiles))
}

// ResolveProfile resolves a profile name to its configuration by checking
// built-in profiles first, then custom profiles.
func ResolveProfile(name string, custom map[string]ProfileConfig) (ProfileConfig, error) {
	if p, ok := builtinProfiles[name]; ok {
		return p, nil
	}

	p, ok := custom[name]
	if !ok {
		return ProfileConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	if p.Extends == "" {
		return p, nil
	}

	base, ok := builtinProfiles[p.Extends]
	if !ok {
		return ProfileConfig{}, fmt.Errorf("profile %q extends unknown profile %q", name, p.Extends)
	}

	return mergeProfiles(base, p), nil
}

// mergeProfiles merges an extension profile on top of a base profile.
func mergeProfiles(base, ext ProfileConfig) ProfileConfig {
	return ProfileConfig{
		RemoveTypes: append(slices.Clone(base.RemoveTypes), ext.RemoveTypes...),
		ExcludeIDs:  append(slices.Clone(base.ExcludeIDs), ext.ExcludeIDs...),
	}
}

// BuildFiltersFromProfile creates the filters for a resolved profile.
// A profile without rules yields no filters.
func BuildFiltersFromProfile(p ProfileConfig) []Filter {
	var filters []Filter

	if len(p.RemoveTypes) > 0 {
		filters = append(filters, NewTypeFilter(Types(p.RemoveTypes...)))
	}

	if len(p.ExcludeIDs) > 0 {
		filters = append(filters, NewResourceIDFilter(p.ExcludeIDs))
	}

	return filters
}

// LoadCustomProfiles loads custom profile definitions from a YAML file.
// The file should contain a top-level "profiles" key.
func LoadCustomProfiles(path string) (map[string]ProfileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}

	return ParseCustomProfiles(data)
}

// ParseCustomProfiles parses profile definitions from YAML bytes.
func ParseCustomProfiles(data []byte) (map[string]ProfileConfig, error) {
	var raw struct {
		Profiles map[string]ProfileConfig `json:"profiles"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	if raw.Profiles == nil {
		return make(map[string]ProfileConfig), nil
	}

	return raw.Profiles, nil
}
