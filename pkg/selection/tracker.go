// Package selection keeps an ordered list of a tree's selected nodes in
// step with its change bus, surviving removals, merges and reloads.
package selection

import (
	"slices"

	"github.com/knarvik/trellis/pkg/tree"
)

const (
	// busSubscriber is the tracker's name on the change bus.
	busSubscriber = "selection-tracker"
	// busPriority puts the tracker behind every display observer, so
	// views never see selection state newer than the tree they render.
	busPriority = 1 << 10
)

// Tracker mirrors the tree's Selected flags as an ordered list. All
// bookkeeping happens in its bus callback, so selection changes made
// directly through tree.SetSelected and changes made through the tracker
// are handled identically. One tracker per tree.
type Tracker struct {
	tree   *tree.Tree
	single bool
	nodes  []tree.Node

	// Snapshot taken at ReloadStarting: folders by path, leaves by the
	// values they wrapped.
	folderPaths []string
	values      []tree.Value

	hooks []hook
}

type hook struct {
	name string
	fn   func()
}

// New attaches a tracker to t's bus. In single mode at most one node stays
// selected: selecting a new one silently drops the previous selection.
func New(t *tree.Tree, single bool) *Tracker {
	tr := &Tracker{tree: t, single: single}
	t.Bus().Subscribe(busSubscriber, busPriority, tr.onChange)
	return tr
}

// Close detaches the tracker from the bus. The selection flags stay as they
// are.
func (tr *Tracker) Close() { tr.tree.Bus().Unsubscribe(busSubscriber) }

// Select adds n to the selection by flipping its flag; the tracker's list
// follows through the resulting bus event.
func (tr *Tracker) Select(n tree.Node) { tr.tree.SetSelected(n, true) }

// Deselect removes n from the selection.
func (tr *Tracker) Deselect(n tree.Node) { tr.tree.SetSelected(n, false) }

// Toggle flips n's membership.
func (tr *Tracker) Toggle(n tree.Node) {
	tr.tree.SetSelected(n, !n.Flags().Has(tree.Selected))
}

// Clear empties the selection.
func (tr *Tracker) Clear() {
	for _, n := range slices.Clone(tr.nodes) {
		tr.tree.SetSelected(n, false)
	}
}

// Len returns the number of selected nodes.
func (tr *Tracker) Len() int { return len(tr.nodes) }

// Nodes returns the selection in selection order.
func (tr *Tracker) Nodes() []tree.Node { return slices.Clone(tr.nodes) }

// First returns the earliest selected node, or nil when nothing is selected.
func (tr *Tracker) First() tree.Node {
	if len(tr.nodes) == 0 {
		return nil
	}
	return tr.nodes[0]
}

// Folders returns the selected folders, in selection order.
func (tr *Tracker) Folders() []*tree.Folder {
	var out []*tree.Folder
	for _, n := range tr.nodes {
		if f, ok := n.(*tree.Folder); ok {
			out = append(out, f)
		}
	}
	return out
}

// Leaves returns the selected leaves, in selection order.
func (tr *Tracker) Leaves() []*tree.Leaf {
	var out []*tree.Leaf
	for _, n := range tr.nodes {
		if l, ok := n.(*tree.Leaf); ok {
			out = append(out, l)
		}
	}
	return out
}

// OnChange registers fn to run after every selection update. Re-registering
// a name replaces the earlier hook.
func (tr *Tracker) OnChange(name string, fn func()) {
	tr.RemoveOnChange(name)
	tr.hooks = append(tr.hooks, hook{name: name, fn: fn})
}

// RemoveOnChange drops the named hook if present.
func (tr *Tracker) RemoveOnChange(name string) {
	for i, h := range tr.hooks {
		if h.name == name {
			tr.hooks = slices.Delete(tr.hooks, i, i+1)
			return
		}
	}
}

func (tr *Tracker) notify() {
	for _, h := range slices.Clone(tr.hooks) {
		h.fn()
	}
}

func (tr *Tracker) onChange(c tree.Change) {
	switch c.Type {
	case tree.SelectedChange:
		tr.onSelected(c.Node)
	case tree.ObjectRemoved:
		// The whole detached subtree leaves the selection.
		tr.tree.SetSelected(c.Node, false)
		if f, ok := c.Node.(*tree.Folder); ok {
			f.Walk(func(n tree.Node) bool {
				tr.tree.SetSelected(n, false)
				return tree.Continue
			})
		}
	case tree.FolderMerged:
		// The merged folder leaves the selection even when a partial
		// merge keeps it alive; its children move out and keep theirs.
		tr.tree.SetSelected(c.Node, false)
	case tree.ReloadStarting:
		tr.snapshot()
	case tree.Reloaded:
		tr.restore()
	}
}

func (tr *Tracker) onSelected(n tree.Node) {
	if !n.Flags().Has(tree.Selected) {
		if i := slices.Index(tr.nodes, n); i >= 0 {
			tr.nodes = slices.Delete(tr.nodes, i, i+1)
			tr.notify()
		}
		return
	}
	if tr.single {
		// Deselecting here dispatches nested SelectedChange events that
		// land back in this handler and prune the list.
		for _, prev := range slices.Clone(tr.nodes) {
			if prev != n {
				tr.tree.SetSelected(prev, false)
			}
		}
	}
	if !slices.Contains(tr.nodes, n) {
		tr.nodes = append(tr.nodes, n)
		tr.notify()
	}
}

// snapshot records what is selected in reload-proof terms: folders by their
// paths, leaves by the values behind them.
func (tr *Tracker) snapshot() {
	tr.folderPaths = tr.folderPaths[:0]
	tr.values = tr.values[:0]
	for _, n := range tr.nodes {
		switch n := n.(type) {
		case *tree.Folder:
			tr.folderPaths = append(tr.folderPaths, n.Path())
		case *tree.Leaf:
			tr.values = append(tr.values, n.Value())
		}
	}
	tr.nodes = nil
	tr.notify()
}

// restore re-selects whatever survived the reload: folders whose path still
// resolves to a folder, values that were wrapped into a new leaf. Everything
// else is dropped silently.
func (tr *Tracker) restore() {
	for _, p := range tr.folderPaths {
		if f, ok := tr.tree.FindFolder(p); ok {
			tr.tree.SetSelected(f, true)
		}
	}
	for _, v := range tr.values {
		if l := v.Leaf(); l != nil {
			tr.tree.SetSelected(l, true)
		}
	}
	tr.folderPaths = nil
	tr.values = nil
}
