package layout

import "github.com/knarvik/trellis/pkg/tree"

// Object is the payload wrapped by tree leaves: a named piece of text with a
// stable identifier. The tree organizes objects without owning them.
type Object struct {
	name string
	id   string
	note string
	rec  tree.PathRecord
	leaf *tree.Leaf
}

// NewObject returns an object. An empty id falls back to the name, which is
// good enough for hand-written layout files.
func NewObject(name, id, note string) *Object {
	if id == "" {
		id = name
	}
	return &Object{name: name, id: id, note: note}
}

// DisplayName returns the object's user-facing name.
func (o *Object) DisplayName() string { return o.name }

// SetDisplayName renames the object itself, not its node. Callers follow up
// with a tree rename when the node should track the new name.
func (o *Object) SetDisplayName(name string) { o.name = name }

// Identifier returns the stable id.
func (o *Object) Identifier() string { return o.id }

// Note returns the object's text.
func (o *Object) Note() string { return o.note }

// SetNote replaces the object's text.
func (o *Object) SetNote(note string) { o.note = note }

// Record returns the object's location bookkeeping.
func (o *Object) Record() *tree.PathRecord { return &o.rec }

// Leaf returns the node currently wrapping the object.
func (o *Object) Leaf() *tree.Leaf { return o.leaf }

// SetLeaf stores the node back-reference.
func (o *Object) SetLeaf(l *tree.Leaf) { o.leaf = l }

// NoteText extracts the searchable text behind a node: the note of a layout
// object, nothing for folders or foreign values. Shaped to feed search
// indexes.
func NoteText(n tree.Node) string {
	l, ok := n.(*tree.Leaf)
	if !ok {
		return ""
	}
	if o, ok := l.Value().(*Object); ok {
		return o.Note()
	}
	return ""
}
