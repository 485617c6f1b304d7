package tree

// Value is the externally owned payload stored in a Leaf. The tree never
// manages a value's lifetime; it only keeps the value's PathRecord and leaf
// back-reference in step with the node wrapping it.
type Value interface {
	// DisplayName returns the value's intrinsic, user-facing name. It
	// need not be unique and may contain characters invalid in paths.
	DisplayName() string
	// Identifier returns a handle that is stable across reloads, used to
	// re-associate restored state with values.
	Identifier() string
	// Record returns the value's location bookkeeping. Must not be nil.
	Record() *PathRecord
	// Leaf returns the node currently wrapping this value, or nil when
	// the value is not in a tree.
	Leaf() *Leaf
	// SetLeaf stores the back-reference. The tree calls this on link and
	// unlink; applications should not.
	SetLeaf(*Leaf)
}
