package tree

// Flags is the per-node state bitset.
type Flags uint8

const (
	// Locked protects a node, and everything below it, from deletion.
	Locked Flags = 1 << iota
	// Expanded marks a folder whose children are shown in flattened views.
	Expanded
	// Selected marks a node as part of the current selection.
	Selected
)

// Has reports whether bit is set.
func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// rootDepth is the reserved depth of the root folder. It is larger than any
// real depth, and unsigned arithmetic wraps it to zero for the root's direct
// children, so depth is always parent depth plus one.
const rootDepth = ^uint8(0)

// Node is a single addressable element of a Tree, either a *Folder or a
// *Leaf. The set of implementations is closed; nodes are created and
// destroyed only through Tree mutations.
type Node interface {
	// ID returns the node's tree-lifetime identifier.
	ID() ID
	// Name returns the stored name, unique among siblings.
	Name() string
	// Parent returns the containing folder, or nil for the root.
	Parent() *Folder
	// Path returns the full slash-separated path from the root. The root
	// itself has the empty path.
	Path() string
	// Depth returns the nesting level below the root, starting at zero
	// for top-level nodes. The root carries a reserved sentinel depth.
	Depth() uint8
	// Flags returns the node's state bits.
	Flags() Flags

	base() *nodeBase
}

// IsRoot reports whether n is the root folder of its tree.
func IsRoot(n Node) bool { return n.base().depth == rootDepth }

// nodeBase carries the state shared by both node kinds. Every derived field
// (path, depth, index hint) is maintained by the owning Tree.
type nodeBase struct {
	id     ID
	name   string
	parent *Folder
	path   string
	depth  uint8
	flags  Flags

	// indexHint remembers the last known position among siblings to seed
	// the IndexInParent scan. It may be stale.
	indexHint int
}

func (n *nodeBase) ID() ID          { return n.id }
func (n *nodeBase) Name() string    { return n.name }
func (n *nodeBase) Parent() *Folder { return n.parent }
func (n *nodeBase) Path() string    { return n.path }
func (n *nodeBase) Depth() uint8    { return n.depth }
func (n *nodeBase) Flags() Flags    { return n.flags }
func (n *nodeBase) base() *nodeBase { return n }

// Folder is an interior node owning an ordered list of children.
type Folder struct {
	nodeBase
	children []Node

	// Denormalized subtree totals, kept in step by every mutation.
	descendants int
	leaves      int
}

// NumChildren returns the number of direct children.
func (f *Folder) NumChildren() int { return len(f.children) }

// Child returns the child at index i, or nil when i is out of range.
func (f *Folder) Child(i int) Node {
	if i < 0 || i >= len(f.children) {
		return nil
	}
	return f.children[i]
}

// Children returns the folder's children in internal order. The slice is
// the live backing store; callers must not modify it.
func (f *Folder) Children() []Node { return f.children }

// ChildByName returns the child with the given stored name, or nil.
func (f *Folder) ChildByName(name string) Node {
	for _, c := range f.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// TotalDescendants returns the number of nodes below f, at any depth.
func (f *Folder) TotalDescendants() int { return f.descendants }

// TotalLeaves returns the number of leaves below f, at any depth.
func (f *Folder) TotalLeaves() int { return f.leaves }

// IsExpanded reports whether the folder's children are shown in views.
func (f *Folder) IsExpanded() bool { return f.flags.Has(Expanded) }

// Continue and Break are the walk function results: Continue descends into
// the node's children, Break skips them. The walk itself always finishes.
const (
	Continue = true
	Break    = false
)

// Walk calls fn on every node below f in pre-order.
func (f *Folder) Walk(fn func(Node) bool) {
	for _, c := range f.children {
		if fn(c) {
			if sub, ok := c.(*Folder); ok {
				sub.Walk(fn)
			}
		}
	}
}

// Leaf is a terminal node wrapping one externally owned value.
type Leaf struct {
	nodeBase
	value Value
}

// Value returns the wrapped value. It is never nil for a linked leaf.
func (l *Leaf) Value() Value { return l.value }

// IndexInParent returns n's position among its parent's children, or -1 for
// the root. The scan starts at the last known position, so lookups on a
// stable tree are near constant.
func IndexInParent(n Node) int {
	nb := n.base()
	if nb.parent == nil {
		return -1
	}
	idx := indexOf(nb.parent.children, n, nb.indexHint)
	nb.indexHint = idx
	return idx
}

// indexOf scans children for target, fanning out from hint.
func indexOf(children []Node, target Node, hint int) int {
	if len(children) == 0 {
		return -1
	}
	if hint < 0 || hint >= len(children) {
		hint = len(children) / 2
	}
	for lo, hi := hint, hint+1; lo >= 0 || hi < len(children); lo, hi = lo-1, hi+1 {
		if lo >= 0 && children[lo] == target {
			return lo
		}
		if hi < len(children) && children[hi] == target {
			return hi
		}
	}
	return -1
}

// Ancestors returns n's containing folders up to but excluding the root,
// nearest first. The root has no ancestors.
func Ancestors(n Node) []*Folder {
	var out []*Folder
	for p := n.base().parent; p != nil && !IsRoot(p); p = p.parent {
		out = append(out, p)
	}
	return out
}

// updateDepth recomputes n's depth from its parent and, only when the value
// changed, pushes the recomputation down the subtree.
func updateDepth(n Node) {
	nb := n.base()
	d := nb.parent.depth + 1
	if nb.depth == d {
		return
	}
	nb.depth = d
	if f, ok := n.(*Folder); ok {
		for _, c := range f.children {
			updateDepth(c)
		}
	}
}

// updatePath recomputes n's path from its parent and pushes the change down
// the subtree. Leaf path records are refreshed along the way so persisted
// locations never drift from the tree.
func updatePath(n Node) {
	nb := n.base()
	nb.path = joinPath(nb.parent.path, nb.name)
	switch n := n.(type) {
	case *Leaf:
		n.value.Record().Update(n)
	case *Folder:
		for _, c := range n.children {
			updatePath(c)
		}
	}
}

// unbindValues clears the leaf back-reference of every value in n's subtree,
// n included. Called when nodes leave the tree for good.
func unbindValues(n Node) {
	switch n := n.(type) {
	case *Leaf:
		n.value.SetLeaf(nil)
	case *Folder:
		for _, c := range n.children {
			unbindValues(c)
		}
	}
}

// subtreeCounts returns the node and leaf totals contributed by n, with n
// itself included in nodes.
func subtreeCounts(n Node) (nodes, leaves int) {
	switch n := n.(type) {
	case *Leaf:
		return 1, 1
	case *Folder:
		return n.descendants + 1, n.leaves
	}
	return 0, 0
}

// addCounts adjusts the denormalized totals of f and every folder above it.
func addCounts(f *Folder, nodes, leaves int) {
	for ; f != nil; f = f.parent {
		f.descendants += nodes
		f.leaves += leaves
	}
}
