package coursetree_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/coursetree/pkg/coursetree"
)

const lesson = `[
  {"resourceId": "s1", "position": 3, "resource": {"id": "s1", "type": "section", "resources": [
    {"resourceId": "v1", "position": 0, "resource": {"id": "v1", "type": "videoResource"}},
    {"resourceId": "t1", "position": 1, "resource": {"id": "t1", "type": "text"}}
  ]}},
  {"resourceId": "v0", "position": 5, "resource": {"id": "v0", "type": "videoResource"}},
  {"resourceId": "img", "position": 8, "resource": {"id": "img", "type": "image"}}
]`

func TestFilterResources_Default(t *testing.T) {
	tree, err := coursetree.Parse([]byte(lesson))
	require.NoError(t, err)

	got := coursetree.FilterResources(tree, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ResourceID)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, "img", got[1].ResourceID)
	assert.Equal(t, 1, got[1].Position)

	require.Len(t, got[0].Resource.Resources, 1)
	assert.Equal(t, "t1", got[0].Resource.Resources[0].ResourceID)
	assert.Equal(t, 0, got[0].Resource.Resources[0].Position)
}

func TestFilterResources_Types(t *testing.T) {
	tree, err := coursetree.Parse([]byte(lesson))
	require.NoError(t, err)

	got := coursetree.FilterResources(tree, coursetree.Types("image", "section"))
	require.Len(t, got, 1)
	assert.Equal(t, "v0", got[0].ResourceID)
	assert.Equal(t, 0, got[0].Position)
	assert.NotNil(t, got[0].Resource.Resources)
}

func TestFilter_Defaults(t *testing.T) {
	res, err := coursetree.Filter(context.Background(), []byte(lesson))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Nodes)
	assert.Equal(t, 2, res.Removed)
	assert.Contains(t, string(res.Output), "- resourceId: s1\n")
}

func TestFilter_ProfileAndJSON(t *testing.T) {
	res, err := coursetree.Filter(context.Background(), []byte(lesson),
		coursetree.WithProfile("text-only"),
		coursetree.WithFormat("json"),
	)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(res.Output, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "s1", out[0]["resourceId"])
}

func TestFilter_CustomProfile(t *testing.T) {
	res, err := coursetree.Filter(context.Background(), []byte(lesson),
		coursetree.WithCustomProfiles([]byte("profiles:\n  bare:\n    extends: outline\n    excludeIds: [t1]\n")),
		coursetree.WithProfile("bare"),
	)
	require.NoError(t, err)
	require.Len(t, res.Tree, 2)
	assert.Empty(t, res.Tree[0].Resource.Resources)
}

func TestFilter_Errors(t *testing.T) {
	_, err := coursetree.Filter(context.Background(), []byte(lesson), coursetree.WithProfile("nope"))
	assert.ErrorContains(t, err, "unknown profile")

	_, err = coursetree.Filter(context.Background(), []byte("{not a tree"))
	assert.Error(t, err)

	_, err = coursetree.Filter(context.Background(), []byte(lesson), coursetree.WithFormat("toml"))
	assert.ErrorContains(t, err, "invalid output format")
}

type lookup struct {
	found map[string]int
	calls map[string]int
}

func (l *lookup) get(_ context.Context, id string) (*coursetree.ContentResource, error) {
	l.calls[id]++
	if n, ok := l.found[id]; ok && l.calls[id] >= n {
		return &coursetree.ContentResource{ID: id, Type: "lesson"}, nil
	}

	return nil, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestPoll_Found(t *testing.T) {
	l := &lookup{found: map[string]int{"abc": 3}, calls: map[string]int{}}

	res, err := coursetree.Poll(context.Background(), "abc", l.get, coursetree.WithSleep(noSleep))
	require.NoError(t, err)
	assert.Equal(t, "abc", res.ID)
	assert.Equal(t, 3, l.calls["abc"])
}

func TestPoll_Exhausted(t *testing.T) {
	l := &lookup{calls: map[string]int{}}

	_, err := coursetree.Poll(context.Background(), "abc", l.get,
		coursetree.WithMaxAttempts(4), coursetree.WithSleep(noSleep))
	require.Error(t, err)
	assert.True(t, coursetree.IsNotFound(err))
	assert.Equal(t, "Resource not found after maximum attempts", err.Error())

	var nf *coursetree.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 4, nf.Attempts)
	assert.Equal(t, 4, l.calls["abc"])
}

func TestPollResource_Lazy(t *testing.T) {
	l := &lookup{found: map[string]int{"abc": 1}, calls: map[string]int{}}

	seq := coursetree.PollResource("abc", l.get, coursetree.WithSleep(noSleep))
	assert.Zero(t, l.calls["abc"])

	var got []string
	for v, err := range seq.All(context.Background()) {
		require.NoError(t, err)
		got = append(got, v.ID)
	}

	assert.Equal(t, []string{"abc"}, got)
}
