package search

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knarvik/trellis/pkg/tree"
)

type stubValue struct {
	name string
	note string
	rec  tree.PathRecord
	leaf *tree.Leaf
}

func (v *stubValue) DisplayName() string      { return v.name }
func (v *stubValue) Identifier() string       { return v.name }
func (v *stubValue) Record() *tree.PathRecord { return &v.rec }
func (v *stubValue) Leaf() *tree.Leaf         { return v.leaf }
func (v *stubValue) SetLeaf(l *tree.Leaf)     { v.leaf = l }

func noteText(n tree.Node) string {
	if l, ok := n.(*tree.Leaf); ok {
		return l.Value().(*stubValue).note
	}
	return ""
}

func newIndexedTree(t *testing.T) (*tree.Tree, *Index) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	tr := tree.New("test", log)

	idx, err := NewIndex(tr, ":memory:", noteText)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return tr, idx
}

func resultPaths(rs []Result) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.Path)
	}
	return out
}

func TestQueryFindsNamesAndText(t *testing.T) {
	tr, idx := newIndexedTree(t)
	f, err := tr.CreateFolder("recipes")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(f, "", &stubValue{name: "carbonara", note: "guanciale and pecorino"})
	require.NoError(t, err)
	_, err = tr.CreateLeaf(nil, "", &stubValue{name: "shopping", note: "eggs"})
	require.NoError(t, err)

	rs, err := idx.Query("carbonara", nil)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "recipes/carbonara", rs[0].Path)
	assert.Equal(t, "leaf", rs[0].Kind)

	rs, err = idx.Query("pecorino", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"recipes/carbonara"}, resultPaths(rs))
}

func TestQueryKindFilter(t *testing.T) {
	tr, idx := newIndexedTree(t)
	f, err := tr.CreateFolder("notes")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(f, "notes", &stubValue{name: "notes"})
	require.NoError(t, err)

	rs, err := idx.Query("notes", &Options{Kind: "folder"})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "folder", rs[0].Kind)
	assert.Equal(t, "notes", rs[0].Path)
}

func TestQueryResyncsAfterMutations(t *testing.T) {
	tr, idx := newIndexedTree(t)
	l, err := tr.CreateLeaf(nil, "old", &stubValue{name: "old"})
	require.NoError(t, err)

	rs, err := idx.Query("old", nil)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	require.NoError(t, tr.Rename(l, "fresh"))
	rs, err = idx.Query("fresh", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, resultPaths(rs))

	rs, err = idx.Query("old", nil)
	require.NoError(t, err)
	assert.Empty(t, rs, "renamed nodes leave under their old name")
}

func TestQuerySurvivesReload(t *testing.T) {
	tr, idx := newIndexedTree(t)
	_, err := tr.CreateLeaf(nil, "before", &stubValue{name: "before"})
	require.NoError(t, err)
	_, err = idx.Query("before", nil)
	require.NoError(t, err)

	require.NoError(t, tr.Reload(func(tr *tree.Tree) error {
		_, err := tr.CreateLeaf(nil, "after", &stubValue{name: "after"})
		return err
	}))

	rs, err := idx.Query("after", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"after"}, resultPaths(rs))
}

func TestMatchQuoting(t *testing.T) {
	assert.Equal(t, `"hello world"`, Match("hello world"))
	assert.Equal(t, `"say ""hi"""`, Match(`say "hi"`))
}

func TestQueryLimit(t *testing.T) {
	tr, idx := newIndexedTree(t)
	for i := 0; i < 5; i++ {
		_, err := tr.CreateLeaf(nil, "item", &stubValue{name: "item"})
		require.NoError(t, err)
	}

	rs, err := idx.Query("item", &Options{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, rs, 3)
}