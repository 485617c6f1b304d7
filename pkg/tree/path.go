package tree

import (
	"strconv"
	"strings"
)

// normalizeName makes a display name usable as a path component. Surrounding
// whitespace is trimmed and slashes are replaced with backslashes, since the
// slash separates path components. A name that trims to nothing becomes "_".
func normalizeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "/", "\\"))
	if name == "" {
		return "_"
	}
	return name
}

// joinPath concatenates a folder path and a child name. The root's path is
// the empty string, so top-level nodes have bare names as paths.
func joinPath(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// splitClean splits path on slashes, trims each component and drops the
// empty ones, so "a//b/" and " a / b " both become ["a", "b"].
func splitClean(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// duplicateName returns the canonical n-th duplicate of base. Numbering
// starts at 2: the first copy of "Item" is "Item (2)".
func duplicateName(base string, n int) string {
	return base + " (" + strconv.Itoa(n) + ")"
}

// splitDuplicate strips one canonical duplicate suffix from name. ok is
// false when name carries no such suffix.
func splitDuplicate(name string) (base string, n int, ok bool) {
	if !strings.HasSuffix(name, ")") {
		return "", 0, false
	}
	i := strings.LastIndex(name, " (")
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(name[i+2 : len(name)-1])
	if err != nil || n < 2 {
		return "", 0, false
	}
	return name[:i], n, true
}

// isDuplicateOf reports whether name is a numbered duplicate of base.
func isDuplicateOf(name, base string) bool {
	b, _, ok := splitDuplicate(name)
	return ok && b == base
}

// nameTaken reports whether any child of f other than ignore already uses
// name. Stored names are unique among siblings regardless of node kind.
func nameTaken(f *Folder, name string, ignore Node) bool {
	for _, c := range f.children {
		if c != ignore && c.Name() == name {
			return true
		}
	}
	return false
}

// uniqueName returns name if no sibling of f uses it, or the first free
// numbered duplicate otherwise. A name that already carries a duplicate
// suffix is renumbered from its base, so suffixes never stack. ignore is
// skipped when scanning, for nodes renamed or moved in place.
func uniqueName(f *Folder, name string, ignore Node) string {
	if !nameTaken(f, name, ignore) {
		return name
	}
	base := name
	if b, _, ok := splitDuplicate(name); ok {
		base = b
	}
	for n := 2; ; n++ {
		if cand := duplicateName(base, n); !nameTaken(f, cand, ignore) {
			return cand
		}
	}
}
