// Package view projects a live tree into flat, sorted, filtered row lists
// for linear rendering. The projection is disposable: it can always be
// rebuilt from the tree, and it rebuilds itself lazily after changes.
package view

import (
	"sort"

	"github.com/knarvik/trellis/pkg/tree"
)

// BusPriority is where caches subscribe on the change bus: ahead of the
// selection tracker, so a cache never renders rows for nodes it has not
// heard about yet.
const BusPriority = 0

// Convert produces the application payload carried by one row. It runs once
// per node per structural rebuild, so it may do real work.
type Convert[T any] func(tree.Node) T

// Filter decides whether a row is visible. index is the position the row
// would take in the flattened list. A nil filter shows everything.
type Filter[T any] func(row *Row[T], index int) bool

// Row is one line of the flattened projection, and doubles as the cache's
// per-node entry: it persists across flattens, so renderers may hold on to
// it, but Index, ParentIndex, Depth and StartsLineTo are only valid until
// the next Update.
type Row[T any] struct {
	// Node is the live source node.
	Node tree.Node
	// Item is the converted payload.
	Item T
	// Visible reports whether the filter approved the row itself. A
	// folder kept only because listed descendants need their ancestry
	// onscreen has Visible false.
	Visible bool

	// Index is the row's position in the flattened list.
	Index int
	// ParentIndex is the list position of the nearest listed ancestor,
	// -1 for top-level rows.
	ParentIndex int
	// Depth is the indentation level, starting at zero.
	Depth int
	// StartsLineTo is the list position of the last row of this row's
	// subtree, -1 when nothing of it is listed. Renderers draw the
	// connector line from here down to that index.
	StartsLineTo int

	children []*Row[T]
}

// Cache keeps the projection of one tree. Structural changes schedule a full
// rebuild (re-convert and re-flatten); order, filter and expansion changes
// schedule a re-flatten only. All work is deferred to Update, so a burst of
// mutations costs one rebuild.
type Cache[T any] struct {
	tree    *tree.Tree
	name    string
	convert Convert[T]

	mode   tree.SortMode
	filter Filter[T]

	root *Row[T]
	rows []*Row[T]

	structural bool
	list       bool
}

// NewCache attaches a cache to t's bus under the given subscriber name.
func NewCache[T any](name string, t *tree.Tree, convert Convert[T]) *Cache[T] {
	c := &Cache[T]{
		tree:       t,
		name:       name,
		convert:    convert,
		mode:       tree.FoldersFirst,
		structural: true,
		list:       true,
	}
	t.Bus().Subscribe(name, BusPriority, c.onChange)
	return c
}

// Close detaches the cache from the bus.
func (c *Cache[T]) Close() { c.tree.Bus().Unsubscribe(c.name) }

// SortMode returns the active sort mode.
func (c *Cache[T]) SortMode() tree.SortMode { return c.mode }

// SetSortMode switches the display order and schedules a re-flatten.
func (c *Cache[T]) SetSortMode(mode tree.SortMode) {
	if mode == c.mode {
		return
	}
	c.mode = mode
	c.list = true
}

// SetFilter replaces the visibility filter and schedules a re-flatten.
func (c *Cache[T]) SetFilter(f Filter[T]) {
	c.filter = f
	c.list = true
}

// InvalidateList schedules a re-flatten. Callers use it when external state
// the filter consults, selection for instance, has changed.
func (c *Cache[T]) InvalidateList() { c.list = true }

// Invalidate schedules a full rebuild. Callers use it when data the
// conversion reads, outside the tree itself, has changed.
func (c *Cache[T]) Invalidate() { c.structural = true }

func (c *Cache[T]) onChange(ch tree.Change) {
	switch ch.Type {
	case tree.ExpandedChange:
		c.list = true
	case tree.SelectedChange, tree.LockedChange:
		// Flag-only edits do not reshape the projection; renderers read
		// these flags off the live nodes.
	case tree.ReloadStarting:
		// Wait for Reloaded.
	default:
		c.structural = true
	}
}

// Update applies any pending rebuild work and returns the current rows. The
// returned slice stays untouched by later updates, but the rows it shares
// with the cache have their positions rewritten by the next flatten.
func (c *Cache[T]) Update() []*Row[T] {
	if c.structural {
		c.root = c.build(c.tree.Root())
		c.structural = false
		c.list = true
	}
	if c.list {
		c.flatten()
		c.list = false
	}
	return c.rows
}

// build converts one live node into a cache entry, children included.
func (c *Cache[T]) build(n tree.Node) *Row[T] {
	r := &Row[T]{
		Node:         n,
		Item:         c.convert(n),
		Index:        -1,
		ParentIndex:  -1,
		StartsLineTo: -1,
	}
	if f, ok := n.(*tree.Folder); ok {
		r.children = make([]*Row[T], 0, f.NumChildren())
		for _, child := range f.Children() {
			r.children = append(r.children, c.build(child))
		}
	}
	return r
}

// flatten recomputes the row list. The root is a container, never a row: it
// acts expanded and its children sit at depth zero.
func (c *Cache[T]) flatten() {
	c.rows = make([]*Row[T], 0, len(c.rows))
	for _, child := range c.sorted(c.root) {
		c.place(child, -1, 0)
	}
}

// sorted returns e's children in display order.
func (c *Cache[T]) sorted(e *Row[T]) []*Row[T] {
	out := make([]*Row[T], len(e.children))
	copy(out, e.children)
	if c.mode != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.mode.Less(out[i].Node, out[j].Node) })
	}
	return out
}

// place appends e to the row list if visible and, when e is an expanded
// folder, recurses into its children regardless of e's own visibility. A
// filtered-out folder is appended anyway as the anchor for its listed
// descendants and retracted again when none survive.
func (c *Cache[T]) place(e *Row[T], parentIndex, depth int) {
	e.Index = -1
	e.ParentIndex = parentIndex
	e.Depth = depth
	e.StartsLineTo = -1
	e.Visible = c.visible(e)
	if e.Visible {
		c.append(e)
	}
	if e.children == nil || !e.Node.Flags().Has(tree.Expanded) {
		return
	}
	if !e.Visible {
		c.append(e)
	}
	mark := len(c.rows)
	for _, child := range c.sorted(e) {
		c.place(child, e.Index, depth+1)
	}
	if len(c.rows) > mark {
		e.StartsLineTo = len(c.rows) - 1
	} else if !e.Visible {
		c.rows = c.rows[:len(c.rows)-1]
		e.Index = -1
	}
}

func (c *Cache[T]) append(e *Row[T]) {
	e.Index = len(c.rows)
	c.rows = append(c.rows, e)
}

func (c *Cache[T]) visible(e *Row[T]) bool {
	if c.filter == nil {
		return true
	}
	return c.filter(e, len(c.rows))
}
