package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knarvik/trellis/pkg/tree"
)

const sampleYAML = `
name: sample
nodes:
  - name: Recipes
    expanded: true
    children:
      - name: Carbonara
        id: rec-001
        note: guanciale and pecorino
      - name: Archive
        folder: true
        locked: true
  - name: Shopping List
    id: txt-001
    stored_as: Groceries
`

func newTree(t *testing.T) *tree.Tree {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return tree.New("test", log)
}

func TestParseAndApply(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "sample", f.Name)
	require.Len(t, f.Nodes, 2)

	tr := newTree(t)
	require.NoError(t, Apply(tr, f))

	recipes, ok := tr.FindFolder("Recipes")
	require.True(t, ok)
	assert.True(t, recipes.IsExpanded())
	assert.Equal(t, 2, recipes.NumChildren())

	archive, ok := tr.FindFolder("Recipes/Archive")
	require.True(t, ok)
	assert.True(t, archive.Flags().Has(tree.Locked))

	l, ok := tr.FindLeaf("Recipes/Carbonara")
	require.True(t, ok)
	obj := l.Value().(*Object)
	assert.Equal(t, "rec-001", obj.Identifier())
	assert.Equal(t, "guanciale and pecorino", obj.Note())

	// A stored_as override lands as a manual rename.
	g, ok := tr.FindLeaf("Groceries")
	require.True(t, ok)
	assert.Equal(t, "Shopping List", g.Value().DisplayName())
	assert.Equal(t, "Groceries", g.Value().Record().SortName)
}

func TestApplyIsAReload(t *testing.T) {
	tr := newTree(t)
	_, err := tr.CreateFolder("stale")
	require.NoError(t, err)

	var types []tree.ChangeType
	tr.Bus().Subscribe("probe", 0, func(c tree.Change) { types = append(types, c.Type) })

	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, Apply(tr, f))

	assert.Equal(t, []tree.ChangeType{tree.ReloadStarting, tree.Reloaded}, types)
	_, ok := tr.Find("stale")
	assert.False(t, ok)
}

func TestSnapshotRoundTrip(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	tr := newTree(t)
	require.NoError(t, Apply(tr, f))

	snap := Snapshot(tr)
	require.Len(t, snap.Nodes, 2)

	recipes := snap.Nodes[0]
	assert.Equal(t, "Recipes", recipes.Name)
	assert.True(t, recipes.Expanded)
	require.Len(t, recipes.Children, 2)
	assert.Equal(t, "Carbonara", recipes.Children[0].Name)
	assert.Equal(t, "rec-001", recipes.Children[0].ID)

	archive := recipes.Children[1]
	assert.True(t, archive.Folder, "empty folders keep the explicit flag")
	assert.True(t, archive.Locked)

	groceries := snap.Nodes[1]
	assert.Equal(t, "Shopping List", groceries.Name)
	assert.Equal(t, "Groceries", groceries.StoredAs)

	// Applying the snapshot reproduces the same tree.
	tr2 := newTree(t)
	require.NoError(t, Apply(tr2, snap))
	assert.Equal(t, tr.Len(), tr2.Len())
	_, ok := tr2.FindLeaf("Groceries")
	assert.True(t, ok)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")

	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, Save(f, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f.Name, loaded.Name)
	require.Len(t, loaded.Nodes, len(f.Nodes))
	assert.Equal(t, f.Nodes[0].Children[0].Note, loaded.Nodes[0].Children[0].Note)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDemoApplies(t *testing.T) {
	tr := newTree(t)
	require.NoError(t, Apply(tr, Demo()))
	assert.Greater(t, tr.Len(), 5)
	_, ok := tr.FindLeaf("Recipes/Archive/Old Carbonara")
	assert.True(t, ok)
}
