// Package tree implements a virtual folder hierarchy for organizing
// externally owned values. Folders and leaves are addressed by slash
// separated paths, carry identifiers that stay stable for the lifetime of
// the tree, and are edited exclusively through Tree methods, which keep
// paths, depths, subtree totals and value records consistent and emit one
// typed Change per logical edit on the tree's Bus.
//
// A tree and all of its observers belong to a single goroutine. Mutating a
// tree from a bus callback is allowed; mutating it from another goroutine is
// not.
package tree

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tree is a mutable virtual folder hierarchy.
type Tree struct {
	name string
	root *Folder
	bus  *Bus
	ids  idAllocator
	log  logrus.FieldLogger

	// reloading mutes per-node events while a reload repopulates.
	reloading bool
}

// New returns an empty tree whose bus carries the same name. A nil log
// falls back to the standard logger.
func New(name string, log logrus.FieldLogger) *Tree {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Tree{
		name: name,
		log:  log.WithField("tree", name),
		bus:  NewBus(name, log),
	}
	t.root = &Folder{nodeBase: nodeBase{id: RootID, depth: rootDepth}}
	return t
}

// Name returns the tree's name.
func (t *Tree) Name() string { return t.name }

// Root returns the root folder. The root has the empty path, a reserved
// identifier and depth, and cannot be renamed, moved, merged or deleted.
func (t *Tree) Root() *Folder { return t.root }

// Bus returns the tree's change bus.
func (t *Tree) Bus() *Bus { return t.bus }

// Len returns the total number of nodes, the root excluded.
func (t *Tree) Len() int { return t.root.descendants }

func (t *Tree) emit(kind ChangeType, n Node) {
	if t.reloading {
		return
	}
	t.bus.Emit(Change{Type: kind, Node: n})
}

// link appends n to parent's children and restores every derived field and
// counter. It does not emit.
func (t *Tree) link(n Node, parent *Folder) {
	nb := n.base()
	nb.parent = parent
	nb.indexHint = len(parent.children)
	parent.children = append(parent.children, n)
	updateDepth(n)
	updatePath(n)
	nodes, leaves := subtreeCounts(n)
	addCounts(parent, nodes, leaves)
}

// unlink detaches n from its parent without destroying it. It does not emit.
func (t *Tree) unlink(n Node) {
	parent := n.base().parent
	idx := IndexInParent(n)
	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
	n.base().parent = nil
	nodes, leaves := subtreeCounts(n)
	addCounts(parent, -nodes, -leaves)
}

// Find resolves a full slash separated path. The empty path resolves to the
// root. Lookup matches stored names exactly; empty components are skipped.
func (t *Tree) Find(path string) (Node, bool) {
	cur := Node(t.root)
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		f, ok := cur.(*Folder)
		if !ok {
			return nil, false
		}
		if cur = f.ChildByName(part); cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// FindFolder resolves path and reports ok only when a folder lives there.
func (t *Tree) FindFolder(path string) (*Folder, bool) {
	n, ok := t.Find(path)
	if !ok {
		return nil, false
	}
	f, ok := n.(*Folder)
	return f, ok
}

// FindLeaf resolves path and reports ok only when a leaf lives there.
func (t *Tree) FindLeaf(path string) (*Leaf, bool) {
	n, ok := t.Find(path)
	if !ok {
		return nil, false
	}
	l, ok := n.(*Leaf)
	return l, ok
}

// Walk calls fn on every node in pre-order, respecting Continue and Break.
func (t *Tree) Walk(fn func(Node) bool) { t.root.Walk(fn) }

// CreateFolder ensures that every folder along path exists, creating the
// missing ones, and returns the final one. Creating an existing folder is a
// no-op, so the call is idempotent; one FolderAdded is emitted per folder
// actually created. A leaf occupying any component fails with ErrNotFolder.
func (t *Tree) CreateFolder(path string) (*Folder, error) {
	cur := t.root
	for _, part := range splitClean(path) {
		part = normalizeName(part)
		switch next := cur.ChildByName(part).(type) {
		case *Folder:
			cur = next
		case *Leaf:
			return nil, fmt.Errorf("create folder %q: %q: %w", path, next.Path(), ErrNotFolder)
		default:
			f := &Folder{nodeBase: nodeBase{id: t.ids.next(), name: part}}
			t.link(f, cur)
			t.emit(FolderAdded, f)
			cur = f
		}
	}
	return cur, nil
}

// CreateLeaf wraps value in a new leaf under parent. The requested name is
// normalized and, when a sibling already uses it, disambiguated with a
// numbered suffix. An empty name falls back to the value's display name. A
// nil parent means the root.
func (t *Tree) CreateLeaf(parent *Folder, name string, value Value) (*Leaf, error) {
	if value == nil {
		return nil, fmt.Errorf("create leaf %q: nil value", name)
	}
	if parent == nil {
		parent = t.root
	}
	if name == "" {
		name = value.DisplayName()
	}
	l := &Leaf{
		nodeBase: nodeBase{id: t.ids.next(), name: uniqueName(parent, normalizeName(name), nil)},
		value:    value,
	}
	value.SetLeaf(l)
	t.link(l, parent)
	t.emit(LeafAdded, l)
	return l, nil
}

// checkMove rejects moves that would detach the root or make node its own
// ancestor. into may equal node's current parent; that is a no-op, not an
// error.
func (t *Tree) checkMove(node Node, into *Folder) error {
	if IsRoot(node) {
		return fmt.Errorf("move: %w", ErrRoot)
	}
	for f := into; f != nil; f = f.parent {
		if Node(f) == node {
			return fmt.Errorf("move %q into %q: %w", node.Path(), into.Path(), ErrCircularMove)
		}
	}
	return nil
}

// Move reparents node under into, keeping its stored name except for
// duplicate disambiguation on arrival. Moving a node onto its current
// parent emits nothing.
func (t *Tree) Move(node Node, into *Folder) error {
	if into == nil {
		into = t.root
	}
	if err := t.checkMove(node, into); err != nil {
		return err
	}
	if node.base().parent == into {
		return nil
	}
	t.unlink(node)
	node.base().name = uniqueName(into, node.Name(), nil)
	t.link(node, into)
	t.emit(ObjectMoved, node)
	return nil
}

// Rename changes node's stored name in place. The name is normalized and
// disambiguated against the node's siblings; renaming a node to its current
// name emits nothing.
func (t *Tree) Rename(node Node, name string) error {
	if IsRoot(node) {
		return fmt.Errorf("rename: %w", ErrRoot)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("rename %q: %w", node.Path(), ErrEmptyName)
	}
	name = uniqueName(node.base().parent, normalizeName(name), node)
	if name == node.Name() {
		return nil
	}
	node.base().name = name
	updatePath(node)
	t.emit(ObjectRenamed, node)
	return nil
}

// RenameAndMove reads path as a destination: everything before the final
// slash is the target folder, created on demand, and the final component is
// the new stored name. It emits ObjectMoved when the parent changed,
// ObjectRenamed when only the name did, and nothing for a full no-op.
func (t *Tree) RenameAndMove(node Node, path string) error {
	if IsRoot(node) {
		return fmt.Errorf("rename: %w", ErrRoot)
	}
	parts := splitClean(path)
	if len(parts) == 0 {
		return fmt.Errorf("rename %q: %w", node.Path(), ErrEmptyName)
	}
	name := normalizeName(parts[len(parts)-1])
	folderPath := strings.Join(parts[:len(parts)-1], "/")

	// Reject descent into the node's own subtree before creating any
	// folder along the destination.
	if f, ok := node.(*Folder); ok {
		if folderPath == f.Path() || strings.HasPrefix(folderPath, f.Path()+"/") {
			return fmt.Errorf("move %q into %q: %w", f.Path(), folderPath, ErrCircularMove)
		}
	}
	into, err := t.CreateFolder(folderPath)
	if err != nil {
		return fmt.Errorf("rename %q: %w", node.Path(), err)
	}
	if err := t.checkMove(node, into); err != nil {
		return err
	}

	if node.base().parent != into {
		t.unlink(node)
		node.base().name = uniqueName(into, name, nil)
		t.link(node, into)
		t.emit(ObjectMoved, node)
		return nil
	}
	if name = uniqueName(into, name, node); name != node.Name() {
		node.base().name = name
		updatePath(node)
		t.emit(ObjectRenamed, node)
	}
	return nil
}

// Merge moves every child of folder into target and removes the emptied
// folder. FolderMerged is emitted for folder before anything moves, then one
// ObjectMoved per child. A child that cannot leave (the target sits inside
// it) stays behind; the folder then survives with the leftovers and
// PartialMerge is emitted instead of the removal.
func (t *Tree) Merge(folder, target *Folder) error {
	if IsRoot(folder) {
		return fmt.Errorf("merge: %w", ErrRoot)
	}
	if folder == target {
		return fmt.Errorf("merge %q: %w", folder.Path(), ErrCircularMove)
	}
	t.emit(FolderMerged, folder)

	kids := make([]Node, len(folder.children))
	copy(kids, folder.children)
	merged := true
	for _, c := range kids {
		if err := t.Move(c, target); err != nil {
			merged = false
		}
	}
	if !merged {
		t.emit(PartialMerge, folder)
		return nil
	}
	// FolderMerged already announced the disappearance.
	t.unlink(folder)
	return nil
}

// Delete detaches node and its whole subtree. The root cannot be deleted,
// and a Locked flag on the node or any ancestor blocks the removal. Values
// in the removed subtree lose their leaf back-reference.
func (t *Tree) Delete(node Node) error {
	if IsRoot(node) {
		return fmt.Errorf("delete: %w", ErrRoot)
	}
	for n := node; ; {
		if n.Flags().Has(Locked) {
			return fmt.Errorf("delete %q: %w", node.Path(), ErrLocked)
		}
		p := n.base().parent
		if p == nil {
			break
		}
		n = p
	}
	t.unlink(node)
	unbindValues(node)
	t.emit(ObjectRemoved, node)
	return nil
}

// SetExpanded records whether node's children appear in flattened views.
// Setting a flag to its current value emits nothing.
func (t *Tree) SetExpanded(node Node, on bool) { t.setFlag(node, Expanded, on, ExpandedChange) }

// SetLocked protects node and its subtree from deletion.
func (t *Tree) SetLocked(node Node, on bool) { t.setFlag(node, Locked, on, LockedChange) }

// SetSelected flips node's selection flag. Applications normally go through
// a selection tracker, which subscribes to the resulting SelectedChange.
func (t *Tree) SetSelected(node Node, on bool) { t.setFlag(node, Selected, on, SelectedChange) }

func (t *Tree) setFlag(node Node, bit Flags, on bool, kind ChangeType) {
	nb := node.base()
	next := nb.flags
	if on {
		next |= bit
	} else {
		next &^= bit
	}
	if next == nb.flags {
		return
	}
	nb.flags = next
	t.emit(kind, node)
}

// Reload replaces the whole tree in two phases. ReloadStarting lets
// observers snapshot what they need, then populate rebuilds the content
// with per-node events muted, then Reloaded tells observers to restore.
// Identifier allocation continues across reloads, so stale references never
// collide with new nodes. Reloaded is emitted even when populate fails, so
// observers always resynchronize against whatever state remains.
func (t *Tree) Reload(populate func(*Tree) error) error {
	t.emit(ReloadStarting, t.root)
	unbindValues(t.root)
	t.root.children = nil
	t.root.descendants = 0
	t.root.leaves = 0

	var err error
	if populate != nil {
		t.reloading = true
		err = populate(t)
		t.reloading = false
	}
	t.emit(Reloaded, t.root)
	if err != nil {
		return fmt.Errorf("reload %s: %w", t.name, err)
	}
	t.log.WithField("nodes", t.root.descendants).Debug("tree reloaded")
	return nil
}
