package deptree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	byPath map[string][]Spec // keyed by LocalPath
}

func (f *stubFetcher) Fetch(spec Spec) (path, human string, children []Spec, err error) {
	path = spec.LocalPath
	human = lastComponent(path)
	return path, human, f.byPath[path], nil
}

func TestBuildResolvesNestedTree(t *testing.T) {
	fetcher := &stubFetcher{byPath: map[string][]Spec{
		"/deps/a": {{Kind: KindLocal, LocalPath: "/deps/b"}},
		"/deps/b": nil,
	}}
	specs := []Spec{{Kind: KindLocal, LocalPath: "/deps/a"}}

	tree, err := Build(specs, "/project", fetcher, map[string]bool{})

	require.NoError(t, err)
	assert.True(t, tree.IsRoot)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "/deps/a", tree.Children[0].Path)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "/deps/b", tree.Children[0].Children[0].Path)
}

func TestBuildDetectsCycle(t *testing.T) {
	fetcher := &stubFetcher{byPath: map[string][]Spec{
		"/deps/a": {{Kind: KindLocal, LocalPath: "/project"}},
	}}
	specs := []Spec{{Kind: KindLocal, LocalPath: "/deps/a"}}

	_, err := Build(specs, "/project", fetcher, map[string]bool{})

	require.Error(t, err)
	var circ *ErrCircular
	assert.ErrorAs(t, err, &circ)
}

func TestBuildPrunesDuplicateSiblings(t *testing.T) {
	fetcher := &stubFetcher{byPath: map[string][]Spec{"/deps/a": nil}}
	specs := []Spec{
		{Kind: KindLocal, LocalPath: "/deps/a"},
		{Kind: KindLocal, LocalPath: "/deps/a"},
	}

	tree, err := Build(specs, "/project", fetcher, map[string]bool{})

	require.NoError(t, err)
	assert.Len(t, tree.Children, 1)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	tree := &Node{
		IsRoot: true,
		Path:   "/project",
		Children: []*Node{
			{Path: "/deps/a", Human: "a", Children: []*Node{
				{Path: "/deps/b", Human: "b"},
			}},
			{Path: "/deps/c", Human: "c", BuildPath: "sub"},
		},
	}

	text := Serialize(tree)
	got, ok, err := Deserialize(text)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/project", got.Path)
	require.Len(t, got.Children, 2)
	assert.Equal(t, "/deps/a", got.Children[0].Path)
	require.Len(t, got.Children[0].Children, 1)
	assert.Equal(t, "/deps/b", got.Children[0].Children[0].Path)
	assert.Equal(t, "sub", got.Children[1].BuildPath)
}

func TestRoundTripIsDeepEqual(t *testing.T) {
	tree := &Node{
		IsRoot: true,
		Path:   "/project",
		Human:  "project",
		Children: []*Node{
			{Path: "/deps/a", Human: "a", Children: []*Node{
				{Path: "/deps/b", Human: "b", BuildPath: "build"},
			}},
			{Path: "/deps/c", Human: "c"},
		},
	}

	got, ok, err := Deserialize(Serialize(tree))

	require.NoError(t, err)
	require.True(t, ok)
	// Every Node field (kind, human name, path, build subpath, children,
	// and root-ness) is carried by the wire format, so the round trip must
	// be exact.
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDeserializeCircularSentinel(t *testing.T) {
	node, ok, err := Deserialize(tagCircular)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, node)
}

func TestDeserializeRejectsMalformedInput(t *testing.T) {
	_, _, err := Deserialize("not a dep tree at all")

	require.Error(t, err)
}

func TestPathHashIsStableAndDistinct(t *testing.T) {
	a := PathHash("/project/a")
	b := PathHash("/project/b")

	assert.Equal(t, a, PathHash("/project/a"))
	assert.NotEqual(t, a, b)
}
