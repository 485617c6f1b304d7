package tree

import "errors"

var (
	// ErrNotFound means a path did not resolve to a node.
	ErrNotFound = errors.New("not found")
	// ErrEmptyName means a rename or move supplied a blank target name.
	ErrEmptyName = errors.New("empty name")
	// ErrNotFolder means a path component resolved to a leaf.
	ErrNotFolder = errors.New("not a folder")
	// ErrCircularMove means a node would become its own ancestor.
	ErrCircularMove = errors.New("cannot move a node into its own subtree")
	// ErrRoot means the operation is not allowed on the root folder.
	ErrRoot = errors.New("operation not allowed on the root")
	// ErrLocked means the node or one of its ancestors is locked.
	ErrLocked = errors.New("node is locked")
)
