package tree

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testValue struct {
	name string
	id   string
	rec  PathRecord
	leaf *Leaf
}

func newTestValue(name string) *testValue { return &testValue{name: name, id: name} }

func (v *testValue) DisplayName() string { return v.name }
func (v *testValue) Identifier() string  { return v.id }
func (v *testValue) Record() *PathRecord { return &v.rec }
func (v *testValue) Leaf() *Leaf         { return v.leaf }
func (v *testValue) SetLeaf(l *Leaf)     { v.leaf = l }

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New("test", log)
}

// recordChanges captures every change emitted after the call.
func recordChanges(tr *Tree) *[]Change {
	var got []Change
	tr.Bus().Subscribe("recorder", 0, func(c Change) { got = append(got, c) })
	return &got
}

func changeTypes(cs []Change) []ChangeType {
	out := make([]ChangeType, len(cs))
	for i, c := range cs {
		out[i] = c.Type
	}
	return out
}

func TestCreateFolder(t *testing.T) {
	tr := newTestTree(t)
	got := recordChanges(tr)

	f, err := tr.CreateFolder("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c", f.Path())
	assert.Equal(t, uint8(2), f.Depth())
	assert.Equal(t, []ChangeType{FolderAdded, FolderAdded, FolderAdded}, changeTypes(*got))
	assert.Equal(t, 3, tr.Len())

	// Creating an existing path is a no-op returning the same folder.
	*got = nil
	again, err := tr.CreateFolder("a/b/c")
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.Empty(t, *got)

	// Only the missing tail is created.
	_, err = tr.CreateFolder("a/b/d")
	require.NoError(t, err)
	assert.Equal(t, []ChangeType{FolderAdded}, changeTypes(*got))

	root, err := tr.CreateFolder("")
	require.NoError(t, err)
	assert.Same(t, tr.Root(), root)
}

func TestCreateFolderThroughLeaf(t *testing.T) {
	tr := newTestTree(t)
	parent, err := tr.CreateFolder("a")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(parent, "x", newTestValue("x"))
	require.NoError(t, err)

	_, err = tr.CreateFolder("a/x/y")
	assert.ErrorIs(t, err, ErrNotFolder)
}

func TestCreateLeaf(t *testing.T) {
	tr := newTestTree(t)
	got := recordChanges(tr)

	v := newTestValue("Item")
	l, err := tr.CreateLeaf(nil, "", v)
	require.NoError(t, err)
	assert.Equal(t, "Item", l.Name())
	assert.Equal(t, "Item", l.Path())
	assert.Equal(t, uint8(0), l.Depth())
	assert.Same(t, l, v.Leaf())
	assert.Equal(t, []ChangeType{LeafAdded}, changeTypes(*got))

	_, err = tr.CreateLeaf(nil, "", nil)
	assert.Error(t, err)
}

func TestCreateLeafDuplicateNames(t *testing.T) {
	tr := newTestTree(t)

	var names []string
	for i := 0; i < 3; i++ {
		l, err := tr.CreateLeaf(nil, "Item", newTestValue("Item"))
		require.NoError(t, err)
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"Item", "Item (2)", "Item (3)"}, names)

	// Numbered duplicates of the display name are not manual renames.
	for _, name := range names {
		l, ok := tr.FindLeaf(name)
		require.True(t, ok, name)
		assert.Empty(t, l.Value().Record().SortName)
	}
}

func TestNameNormalization(t *testing.T) {
	tr := newTestTree(t)
	l, err := tr.CreateLeaf(nil, "  a/b  ", newTestValue("x"))
	require.NoError(t, err)
	assert.Equal(t, `a\b`, l.Name())

	_, ok := tr.Find(`a\b`)
	assert.True(t, ok)
}

func TestMove(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	b, err := tr.CreateFolder("b/c")
	require.NoError(t, err)
	l, err := tr.CreateLeaf(a, "item", newTestValue("item"))
	require.NoError(t, err)

	got := recordChanges(tr)
	require.NoError(t, tr.Move(l, b))
	assert.Equal(t, "b/c/item", l.Path())
	assert.Equal(t, uint8(2), l.Depth())
	assert.Equal(t, []ChangeType{ObjectMoved}, changeTypes(*got))
	assert.Equal(t, 0, a.TotalDescendants())
	assert.Equal(t, 1, b.TotalLeaves())
	assert.Equal(t, "b/c", l.Value().Record().Folder)

	// Moving onto the current parent changes nothing and emits nothing.
	*got = nil
	require.NoError(t, tr.Move(l, b))
	assert.Empty(t, *got)
}

func TestMoveCircular(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	ab, err := tr.CreateFolder("a/b")
	require.NoError(t, err)

	err = tr.Move(a, ab)
	assert.ErrorIs(t, err, ErrCircularMove)
	err = tr.Move(a, a)
	assert.ErrorIs(t, err, ErrCircularMove)
	err = tr.Move(tr.Root(), a)
	assert.ErrorIs(t, err, ErrRoot)
}

func TestMoveDisambiguates(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(a, "item", newTestValue("item"))
	require.NoError(t, err)
	l, err := tr.CreateLeaf(nil, "item", newTestValue("item"))
	require.NoError(t, err)

	require.NoError(t, tr.Move(l, a))
	assert.Equal(t, "item (2)", l.Name())
	assert.Equal(t, "a/item (2)", l.Path())
	// The suffix is bookkeeping, not a manual rename.
	assert.Empty(t, l.Value().Record().SortName)
}

func TestRename(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	l, err := tr.CreateLeaf(a, "old", newTestValue("display"))
	require.NoError(t, err)

	got := recordChanges(tr)
	require.NoError(t, tr.Rename(l, "new"))
	assert.Equal(t, "a/new", l.Path())
	assert.Equal(t, []ChangeType{ObjectRenamed}, changeTypes(*got))
	assert.Equal(t, "new", l.Value().Record().SortName)

	// Renaming back to the display name clears the manual override.
	require.NoError(t, tr.Rename(l, "display"))
	assert.Empty(t, l.Value().Record().SortName)

	*got = nil
	require.NoError(t, tr.Rename(l, "display"))
	assert.Empty(t, *got, "renaming to the current name should emit nothing")

	err = tr.Rename(l, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
	err = tr.Rename(tr.Root(), "x")
	assert.ErrorIs(t, err, ErrRoot)
}

func TestRenameFolderUpdatesSubtree(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a/b")
	require.NoError(t, err)
	l, err := tr.CreateLeaf(a, "item", newTestValue("item"))
	require.NoError(t, err)

	parent := a.Parent()
	require.NoError(t, tr.Rename(parent, "renamed"))
	assert.Equal(t, "renamed/b", a.Path())
	assert.Equal(t, "renamed/b/item", l.Path())
	assert.Equal(t, "renamed/b", l.Value().Record().Folder)
	assert.Equal(t, "renamed/b/item", l.Value().Record().CurrentPath)
}

func TestRenameAndMove(t *testing.T) {
	tr := newTestTree(t)
	l, err := tr.CreateLeaf(nil, "item", newTestValue("item"))
	require.NoError(t, err)

	got := recordChanges(tr)
	require.NoError(t, tr.RenameAndMove(l, "x/y/renamed"))
	assert.Equal(t, "x/y/renamed", l.Path())
	assert.Equal(t, []ChangeType{FolderAdded, FolderAdded, ObjectMoved}, changeTypes(*got))

	// Same parent, new name: a rename, not a move.
	*got = nil
	require.NoError(t, tr.RenameAndMove(l, "x/y/again"))
	assert.Equal(t, []ChangeType{ObjectRenamed}, changeTypes(*got))

	// Full no-op.
	*got = nil
	require.NoError(t, tr.RenameAndMove(l, "x/y/again"))
	assert.Empty(t, *got)
}

func TestRenameAndMoveIntoOwnSubtree(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)

	err = tr.RenameAndMove(a, "a/sub/renamed")
	assert.ErrorIs(t, err, ErrCircularMove)
	// The rejected destination must not leave folders behind.
	_, ok := tr.Find("a/sub")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	tr := newTestTree(t)
	src, err := tr.CreateFolder("src")
	require.NoError(t, err)
	dst, err := tr.CreateFolder("dst")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(src, "one", newTestValue("one"))
	require.NoError(t, err)
	_, err = tr.CreateLeaf(src, "two", newTestValue("two"))
	require.NoError(t, err)
	_, err = tr.CreateLeaf(dst, "one", newTestValue("one"))
	require.NoError(t, err)

	got := recordChanges(tr)
	require.NoError(t, tr.Merge(src, dst))

	// The merge announcement precedes the per-child moves.
	assert.Equal(t, []ChangeType{FolderMerged, ObjectMoved, ObjectMoved}, changeTypes(*got))
	_, ok := tr.Find("src")
	assert.False(t, ok, "an emptied source folder disappears")
	assert.Equal(t, 3, dst.TotalLeaves())
	_, ok = tr.Find("dst/one (2)")
	assert.True(t, ok, "colliding children are disambiguated on arrival")
}

func TestMergeIntoOwnDescendant(t *testing.T) {
	tr := newTestTree(t)
	src, err := tr.CreateFolder("src")
	require.NoError(t, err)
	inner, err := tr.CreateFolder("src/inner")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(src, "item", newTestValue("item"))
	require.NoError(t, err)

	got := recordChanges(tr)
	require.NoError(t, tr.Merge(src, inner))

	assert.Equal(t, []ChangeType{FolderMerged, ObjectMoved, PartialMerge}, changeTypes(*got))
	_, ok := tr.Find("src")
	assert.True(t, ok, "a folder with leftovers survives")
	assert.Same(t, src, inner.Parent())
	_, ok = tr.Find("src/inner/item")
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	v := newTestValue("item")
	l, err := tr.CreateLeaf(a, "item", v)
	require.NoError(t, err)

	got := recordChanges(tr)
	require.NoError(t, tr.Delete(a))
	assert.Equal(t, []ChangeType{ObjectRemoved}, changeTypes(*got))
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, v.Leaf(), "values in a removed subtree lose their node")
	assert.Nil(t, a.Parent())
	assert.Same(t, a, l.Parent(), "the detached subtree stays intact")

	err = tr.Delete(tr.Root())
	assert.ErrorIs(t, err, ErrRoot)
}

func TestDeleteLocked(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	l, err := tr.CreateLeaf(a, "item", newTestValue("item"))
	require.NoError(t, err)

	tr.SetLocked(l, true)
	assert.ErrorIs(t, tr.Delete(l), ErrLocked)

	tr.SetLocked(l, false)
	tr.SetLocked(a, true)
	assert.ErrorIs(t, tr.Delete(l), ErrLocked, "an ancestor lock protects the subtree")

	tr.SetLocked(a, false)
	assert.NoError(t, tr.Delete(l))
}

func TestFlagChanges(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)

	got := recordChanges(tr)
	tr.SetExpanded(a, true)
	tr.SetExpanded(a, true)
	tr.SetSelected(a, true)
	tr.SetLocked(a, true)
	tr.SetExpanded(a, false)

	assert.Equal(t, []ChangeType{ExpandedChange, SelectedChange, LockedChange, ExpandedChange}, changeTypes(*got))
	assert.True(t, a.Flags().Has(Selected))
	assert.True(t, a.Flags().Has(Locked))
	assert.False(t, a.Flags().Has(Expanded))
}

func TestReload(t *testing.T) {
	tr := newTestTree(t)
	v := newTestValue("item")
	_, err := tr.CreateLeaf(nil, "", v)
	require.NoError(t, err)
	firstID := v.Leaf().ID()

	got := recordChanges(tr)
	err = tr.Reload(func(tr *Tree) error {
		f, err := tr.CreateFolder("fresh")
		if err != nil {
			return err
		}
		_, err = tr.CreateLeaf(f, "", v)
		return err
	})
	require.NoError(t, err)

	// Only the bracketing events surface; population is silent.
	assert.Equal(t, []ChangeType{ReloadStarting, Reloaded}, changeTypes(*got))
	assert.Equal(t, 2, tr.Len())
	require.NotNil(t, v.Leaf())
	assert.Equal(t, "fresh/item", v.Leaf().Path())
	assert.Greater(t, v.Leaf().ID(), firstID, "identifiers keep counting across reloads")
}

func TestReloadError(t *testing.T) {
	tr := newTestTree(t)
	_, err := tr.CreateFolder("a")
	require.NoError(t, err)

	got := recordChanges(tr)
	wantErr := errors.New("boom")
	err = tr.Reload(func(tr *Tree) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
	// Observers still get the closing event to resynchronize.
	assert.Equal(t, []ChangeType{ReloadStarting, Reloaded}, changeTypes(*got))
	assert.Equal(t, 0, tr.Len())
}

func TestFind(t *testing.T) {
	tr := newTestTree(t)
	f, err := tr.CreateFolder("a/b")
	require.NoError(t, err)
	l, err := tr.CreateLeaf(f, "item", newTestValue("item"))
	require.NoError(t, err)

	tests := []struct {
		path string
		want Node
		ok   bool
	}{
		{"", tr.Root(), true},
		{"a", f.Parent(), true},
		{"a/b", f, true},
		{"a/b/item", l, true},
		{"a//b/", f, true},
		{"a/b/item/deeper", nil, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		got, ok := tr.Find(tt.path)
		if ok != tt.ok {
			t.Errorf("Find(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("Find(%q) = %v, want %v", tt.path, got.Path(), tt.want.Path())
		}
	}

	if _, ok := tr.FindFolder("a/b/item"); ok {
		t.Error("FindFolder should reject leaves")
	}
	if _, ok := tr.FindLeaf("a/b"); ok {
		t.Error("FindLeaf should reject folders")
	}
}

func TestDepthAndRoot(t *testing.T) {
	tr := newTestTree(t)
	assert.True(t, IsRoot(tr.Root()))
	assert.True(t, tr.Root().ID().IsRoot())
	assert.Equal(t, "", tr.Root().Path())

	f, err := tr.CreateFolder("a")
	require.NoError(t, err)
	assert.False(t, IsRoot(f))
	assert.Equal(t, uint8(0), f.Depth())
	assert.Equal(t, tr.Root().Depth()+1, f.Depth(), "the root sentinel wraps to zero")
}

func TestAncestors(t *testing.T) {
	tr := newTestTree(t)
	c, err := tr.CreateFolder("a/b/c")
	require.NoError(t, err)

	anc := Ancestors(c)
	require.Len(t, anc, 2)
	assert.Equal(t, "a/b", anc[0].Path())
	assert.Equal(t, "a", anc[1].Path())
	assert.Empty(t, Ancestors(tr.Root()))
}

func TestIndexInParent(t *testing.T) {
	tr := newTestTree(t)
	var leaves []*Leaf
	for _, name := range []string{"a", "b", "c"} {
		l, err := tr.CreateLeaf(nil, name, newTestValue(name))
		require.NoError(t, err)
		leaves = append(leaves, l)
	}
	for i, l := range leaves {
		assert.Equal(t, i, IndexInParent(l))
	}
	assert.Equal(t, -1, IndexInParent(tr.Root()))

	// The hint survives removals.
	require.NoError(t, tr.Delete(leaves[0]))
	assert.Equal(t, 0, IndexInParent(leaves[1]))
	assert.Equal(t, 1, IndexInParent(leaves[2]))
}

// Subtree totals must stay equal to what a traversal counts, whatever the
// mutation history.
func TestCountersMatchTraversal(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a/b")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(a, "x", newTestValue("x"))
	require.NoError(t, err)
	_, err = tr.CreateLeaf(a.Parent(), "y", newTestValue("y"))
	require.NoError(t, err)
	d, err := tr.CreateFolder("d")
	require.NoError(t, err)
	require.NoError(t, tr.Move(a, d))
	require.NoError(t, tr.Delete(a.ChildByName("x")))

	tr.Walk(func(n Node) bool {
		f, ok := n.(*Folder)
		if !ok {
			return Continue
		}
		nodes, leaves := 0, 0
		f.Walk(func(m Node) bool {
			nodes++
			if _, ok := m.(*Leaf); ok {
				leaves++
			}
			return Continue
		})
		assert.Equal(t, nodes, f.TotalDescendants(), "descendants of %q", f.Path())
		assert.Equal(t, leaves, f.TotalLeaves(), "leaves of %q", f.Path())
		return Continue
	})
}

func TestWalkBreakSkipsSubtree(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder("a")
	require.NoError(t, err)
	_, err = tr.CreateLeaf(a, "inner", newTestValue("inner"))
	require.NoError(t, err)
	_, err = tr.CreateLeaf(nil, "outer", newTestValue("outer"))
	require.NoError(t, err)

	var seen []string
	tr.Walk(func(n Node) bool {
		seen = append(seen, n.Path())
		if _, ok := n.(*Folder); ok {
			return Break
		}
		return Continue
	})
	assert.Equal(t, []string{"a", "outer"}, seen)
}
