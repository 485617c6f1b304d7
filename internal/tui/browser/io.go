package browser

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/knarvik/trellis/internal/layout"
)

type layoutSavedMsg struct {
	path string
	err  error
}

type layoutLoadedMsg struct {
	file *layout.File
	err  error
}

// saveLayoutCmd writes an already taken snapshot to disk. The snapshot itself
// must be taken on the update goroutine; the tree is not safe to read while
// updates run.
func saveLayoutCmd(f *layout.File, path string) tea.Cmd {
	return func() tea.Msg {
		return layoutSavedMsg{path: path, err: layout.Save(f, path)}
	}
}

// loadLayoutCmd reads a layout file from disk. Applying it to the tree
// happens later, on the update goroutine, when the message arrives.
func loadLayoutCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := layout.Load(path)
		return layoutLoadedMsg{file: f, err: err}
	}
}
