package tree

// PathRecord reconciles a value's persisted location with its intrinsic
// display name. Folder and SortName are what applications persist: together
// with the display name they reproduce the value's place in the tree.
// SortName is set exactly when the stored name was chosen manually; a stored
// name that merely disambiguates the display name with a numbered suffix
// does not count as manual, so renaming the value itself relocates the node.
type PathRecord struct {
	// CurrentPath is the full path last assigned by the tree.
	CurrentPath string
	// Folder is the containing folder path, empty at top level.
	Folder string
	// SortName is the manual name override, empty when the stored name
	// follows the display name.
	SortName string
}

// IsDefault reports whether the record carries no information beyond the
// value's display name, meaning the value sits at top level under its own
// name and need not be persisted.
func (r *PathRecord) IsDefault() bool { return r.Folder == "" && r.SortName == "" }

// Update re-derives the record from l's current position and stored name.
// It reports whether any field changed.
func (r *PathRecord) Update(l *Leaf) bool {
	changed := false

	folder := ""
	if p := l.Parent(); p != nil && !IsRoot(p) {
		folder = p.Path()
	}
	if folder != r.Folder {
		r.Folder = folder
		changed = true
	}

	sortName := l.Name()
	display := normalizeName(l.Value().DisplayName())
	if sortName == display || isDuplicateOf(sortName, display) {
		sortName = ""
	}
	if sortName != r.SortName {
		r.SortName = sortName
		changed = true
	}

	if l.Path() != r.CurrentPath {
		r.CurrentPath = l.Path()
		changed = true
	}
	return changed
}

// IntendedName returns the stored name the record implies for a value with
// the given display name: the manual override when one exists, the
// normalized display name otherwise.
func (r *PathRecord) IntendedName(displayName string) string {
	if r.SortName != "" {
		return r.SortName
	}
	return normalizeName(displayName)
}

// IntendedPath returns the full path the record implies, before any
// duplicate disambiguation.
func (r *PathRecord) IntendedPath(displayName string) string {
	return joinPath(r.Folder, r.IntendedName(displayName))
}
