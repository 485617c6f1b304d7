package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectorsOf(rows []*Row[string]) []string {
	var out []string
	for i := range rows {
		out = append(out, Connectors(rows, i))
	}
	return out
}

func TestConnectors(t *testing.T) {
	tr := newTree(t)
	f := mustFolder(t, tr, "f")
	sub := mustFolder(t, tr, "f/sub")
	mustLeaf(t, tr, sub, "deep")
	mustLeaf(t, tr, f, "a")
	mustLeaf(t, tr, nil, "top")
	tr.SetExpanded(f, true)
	tr.SetExpanded(sub, true)

	c := NewCache[string]("test", tr, nameOf)
	rows := c.Update()
	require.Equal(t, []string{"f", "f/sub", "f/sub/deep", "f/a", "top"}, rowPaths(rows))

	assert.Equal(t, []string{"", "├─ ", "│  └─ ", "└─ ", ""}, connectorsOf(rows))
}

// Anchor rows take part in the connector geometry like any other row, so
// lines stay straight around filtered-out folders.
func TestConnectorsAroundAnchors(t *testing.T) {
	tr := newTree(t)
	f := mustFolder(t, tr, "f")
	mustLeaf(t, tr, f, "a")
	b := mustFolder(t, tr, "f/b")
	mustLeaf(t, tr, b, "c")
	tr.SetExpanded(f, true)
	tr.SetExpanded(b, true)

	c := NewCache[string]("test", tr, nameOf)
	c.SetFilter(func(r *Row[string], _ int) bool { return r.Node.Name() != "b" })

	rows := c.Update()
	require.Equal(t, []string{"f", "f/b", "f/b/c", "f/a"}, rowPaths(rows))

	assert.Equal(t, []string{"", "├─ ", "│  └─ ", "└─ "}, connectorsOf(rows))
}
