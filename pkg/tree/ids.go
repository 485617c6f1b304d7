package tree

// ID identifies a node for the lifetime of one Tree. Identifiers are handed
// out monotonically and never reused, including across reloads, so stale
// references can always be told apart from new nodes.
type ID uint32

// RootID is reserved for the root folder of every tree.
const RootID ID = 0

// IsRoot reports whether id is the reserved root identifier.
func (id ID) IsRoot() bool { return id == RootID }

// idAllocator hands out identifiers starting at 1.
type idAllocator struct {
	last uint32
}

func (a *idAllocator) next() ID {
	a.last++
	return ID(a.last)
}
