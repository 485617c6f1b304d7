package tree

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode orders siblings for display. Implementations must be total over
// any pair of nodes so flattened views are stable.
type SortMode interface {
	// Name identifies the mode in configuration and UI.
	Name() string
	// Less reports whether a sorts before b.
	Less(a, b Node) bool
}

// Trees are confined to one goroutine, so the shared collator needs no lock.
var collator = collate.New(language.Und, collate.IgnoreCase)

// compareNames orders nodes by stored name, case-insensitively, with the
// identifier as tiebreak so equal-folding names still order consistently.
func compareNames(a, b Node) int {
	if c := collator.CompareString(a.Name(), b.Name()); c != 0 {
		return c
	}
	switch {
	case a.ID() < b.ID():
		return -1
	case a.ID() > b.ID():
		return 1
	}
	return 0
}

func isFolder(n Node) bool {
	_, ok := n.(*Folder)
	return ok
}

type lexicographic struct{ desc bool }

func (m lexicographic) Name() string {
	if m.desc {
		return "lexicographic-desc"
	}
	return "lexicographic"
}

func (m lexicographic) Less(a, b Node) bool {
	if m.desc {
		return compareNames(a, b) > 0
	}
	return compareNames(a, b) < 0
}

type foldersFirst struct{ desc bool }

func (m foldersFirst) Name() string {
	if m.desc {
		return "folders-first-desc"
	}
	return "folders-first"
}

func (m foldersFirst) Less(a, b Node) bool {
	if fa, fb := isFolder(a), isFolder(b); fa != fb {
		return fa
	}
	if m.desc {
		return compareNames(a, b) > 0
	}
	return compareNames(a, b) < 0
}

type foldersLast struct{ desc bool }

func (m foldersLast) Name() string {
	if m.desc {
		return "folders-last-desc"
	}
	return "folders-last"
}

func (m foldersLast) Less(a, b Node) bool {
	if fa, fb := isFolder(a), isFolder(b); fa != fb {
		return fb
	}
	if m.desc {
		return compareNames(a, b) > 0
	}
	return compareNames(a, b) < 0
}

type creation struct{ desc bool }

func (m creation) Name() string {
	if m.desc {
		return "creation-desc"
	}
	return "creation"
}

func (m creation) Less(a, b Node) bool {
	if m.desc {
		return a.ID() > b.ID()
	}
	return a.ID() < b.ID()
}

// Built-in sort modes. The descending variants invert the name comparison
// but keep the folder grouping.
var (
	Lexicographic     SortMode = lexicographic{}
	LexicographicDesc SortMode = lexicographic{desc: true}
	FoldersFirst      SortMode = foldersFirst{}
	FoldersFirstDesc  SortMode = foldersFirst{desc: true}
	FoldersLast       SortMode = foldersLast{}
	FoldersLastDesc   SortMode = foldersLast{desc: true}
	Creation          SortMode = creation{}
	CreationDesc      SortMode = creation{desc: true}
)

// SortModes lists the built-in modes in cycling order.
var SortModes = []SortMode{
	FoldersFirst,
	FoldersFirstDesc,
	Lexicographic,
	LexicographicDesc,
	FoldersLast,
	FoldersLastDesc,
	Creation,
	CreationDesc,
}

// SortModeByName resolves a configured mode name.
func SortModeByName(name string) (SortMode, bool) {
	for _, m := range SortModes {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// ChildrenSorted returns a copy of the folder's children ordered by mode. A
// nil mode keeps internal order.
func (f *Folder) ChildrenSorted(mode SortMode) []Node {
	out := make([]Node, len(f.children))
	copy(out, f.children)
	if mode != nil {
		sort.SliceStable(out, func(i, j int) bool { return mode.Less(out[i], out[j]) })
	}
	return out
}
