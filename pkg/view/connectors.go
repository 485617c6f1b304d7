package view

import "strings"

// Connectors renders the tree-drawing prefix for rows[i] from the flatten
// metadata alone: a branch glyph in the innermost column and, further out, a
// continuation bar for every ancestor whose subtree keeps going below row i.
func Connectors[T any](rows []*Row[T], i int) string {
	r := rows[i]
	if r.Depth == 0 {
		return ""
	}
	cols := make([]string, r.Depth)
	if lastListedChild(rows, i) {
		cols[r.Depth-1] = "└─ "
	} else {
		cols[r.Depth-1] = "├─ "
	}
	idx := i
	for d := r.Depth - 2; d >= 0; d-- {
		idx = rows[idx].ParentIndex
		if lastListedChild(rows, idx) {
			cols[d] = "   "
		} else {
			cols[d] = "│  "
		}
	}
	return strings.Join(cols, "")
}

// lastListedChild reports whether rows[i] is the last listed child of its
// parent row: no later row inside the parent's span claims the same parent.
func lastListedChild[T any](rows []*Row[T], i int) bool {
	p := rows[i].ParentIndex
	if p < 0 {
		return true
	}
	for j := i + 1; j <= rows[p].StartsLineTo; j++ {
		if rows[j].ParentIndex == p {
			return false
		}
	}
	return true
}
