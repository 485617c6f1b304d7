// Package layout reads and writes YAML descriptions of trees, and populates
// live trees from them.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/knarvik/trellis/pkg/tree"
)

// File is the on-disk description of a tree.
type File struct {
	Name  string  `yaml:"name,omitempty"`
	Nodes []Entry `yaml:"nodes"`
}

// Entry describes one node. Entries with children, or the folder flag set,
// become folders; everything else becomes an object leaf. Folder names
// containing slashes nest, like paths do.
type Entry struct {
	Name     string  `yaml:"name"`
	Folder   bool    `yaml:"folder,omitempty"`
	Expanded bool    `yaml:"expanded,omitempty"`
	Locked   bool    `yaml:"locked,omitempty"`
	ID       string  `yaml:"id,omitempty"`
	Note     string  `yaml:"note,omitempty"`
	StoredAs string  `yaml:"stored_as,omitempty"`
	Children []Entry `yaml:"children,omitempty"`
}

// IsFolder reports whether the entry describes a folder.
func (e *Entry) IsFolder() bool { return e.Folder || len(e.Children) > 0 }

// Load reads a layout file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(data)
}

// Parse decodes layout YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &f, nil
}

// Save writes the layout to path.
func Save(f *File, path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

// Apply reloads t with the file's content. Observers see the usual reload
// bracket and restore across it.
func Apply(t *tree.Tree, f *File) error {
	return t.Reload(func(t *tree.Tree) error {
		return insert(t, t.Root(), f.Nodes)
	})
}

func insert(t *tree.Tree, parent *tree.Folder, entries []Entry) error {
	for _, e := range entries {
		if e.IsFolder() {
			f, err := t.CreateFolder(parent.Path() + "/" + e.Name)
			if err != nil {
				return err
			}
			t.SetExpanded(f, e.Expanded)
			t.SetLocked(f, e.Locked)
			if err := insert(t, f, e.Children); err != nil {
				return err
			}
			continue
		}
		l, err := t.CreateLeaf(parent, e.StoredAs, NewObject(e.Name, e.ID, e.Note))
		if err != nil {
			return err
		}
		t.SetLocked(l, e.Locked)
	}
	return nil
}

// Snapshot captures the tree as a layout file, the inverse of Apply. Only
// what Apply can reproduce is captured: selection, for one, is not.
func Snapshot(t *tree.Tree) *File {
	return &File{
		Name:  t.Name(),
		Nodes: snapshotChildren(t.Root()),
	}
}

func snapshotChildren(f *tree.Folder) []Entry {
	var out []Entry
	for _, n := range f.Children() {
		switch n := n.(type) {
		case *tree.Folder:
			e := Entry{
				Name:     n.Name(),
				Expanded: n.IsExpanded(),
				Locked:   n.Flags().Has(tree.Locked),
				Children: snapshotChildren(n),
			}
			e.Folder = len(e.Children) == 0
			out = append(out, e)
		case *tree.Leaf:
			e := Entry{
				Name:     n.Value().DisplayName(),
				Locked:   n.Flags().Has(tree.Locked),
				StoredAs: n.Value().Record().SortName,
			}
			if o, ok := n.Value().(*Object); ok {
				e.ID = o.Identifier()
				e.Note = o.Note()
			}
			out = append(out, e)
		}
	}
	return out
}

// Demo returns a small built-in layout for trying the browser without a
// file.
func Demo() *File {
	return &File{
		Name: "demo",
		Nodes: []Entry{
			{
				Name:     "Recipes",
				Expanded: true,
				Children: []Entry{
					{Name: "Carbonara", ID: "rec-001", Note: "guanciale, eggs, pecorino"},
					{Name: "Cacio e Pepe", ID: "rec-002", Note: "tonnarelli, pepper"},
					{
						Name:   "Archive",
						Locked: true,
						Children: []Entry{
							{Name: "Carbonara", ID: "rec-000", Note: "the cream heresy", StoredAs: "Old Carbonara"},
						},
					},
				},
			},
			{
				Name:     "Projects",
				Expanded: true,
				Children: []Entry{
					{Name: "Greenhouse", ID: "prj-100", Note: "glass, cedar frame"},
					{Name: "Workbench", ID: "prj-101"},
				},
			},
			{Name: "Inbox", Folder: true},
			{Name: "Shopping List", ID: "txt-001", Note: "eggs, pecorino, pepper"},
		},
	}
}
