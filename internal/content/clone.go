package content

import "time"

// Clone returns a deep copy of the tree. Maps, slices, and timestamps in
// the copy share no memory with tree.
func Clone(tree []Association) []Association {
	if tree == nil {
		return nil
	}

	out := make([]Association, len(tree))
	for i, a := range tree {
		out[i] = a.Clone()
	}

	return out
}

// Clone returns a deep copy of a, including the whole subtree below it.
func (a Association) Clone() Association {
	c := a.CloneNode()
	c.Resource.Resources = Clone(a.Resource.Resources)

	return c
}

// CloneNode copies a and its embedded resource but leaves the child list
// nil. Callers rebuilding a tree level by level fill it in themselves.
func (a Association) CloneNode() Association {
	return Association{
		ResourceID:   a.ResourceID,
		ResourceOfID: a.ResourceOfID,
		Position:     a.Position,
		Metadata:     copyMap(a.Metadata),
		CreatedAt:    copyTime(a.CreatedAt),
		UpdatedAt:    copyTime(a.UpdatedAt),
		DeletedAt:    copyTime(a.DeletedAt),
		Resource: Resource{
			ID:        a.Resource.ID,
			Type:      a.Resource.Type,
			Fields:    copyMap(a.Resource.Fields),
			CreatedAt: copyTime(a.Resource.CreatedAt),
			UpdatedAt: copyTime(a.Resource.UpdatedAt),
		},
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	c := *t

	return &c
}

// copyMap deep-copies the nested maps and slices that JSON and YAML
// decoding produce. Other values are copied by assignment.
func copyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}

	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		if val == nil {
			return val
		}

		s := make([]any, len(val))
		for i, e := range val {
			s[i] = copyValue(e)
		}

		return s
	default:
		return v
	}
}
