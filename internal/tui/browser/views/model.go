// Package views holds the browser's secondary screens. The results picker
// lists search hits and lets the user jump to one.
package views

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/knarvik/trellis/pkg/search"
)

// Results is the search results picker.
type Results struct {
	Active bool

	keys   KeyMap
	query  string
	hits   []search.Result
	cursor int
	height int
}

// NewResults creates an inactive picker.
func NewResults() Results {
	return Results{
		keys: KeyMap{
			Up: key.NewBinding(
				key.WithKeys("k", "up"),
				key.WithHelp("↑/k", "up"),
			),
			Down: key.NewBinding(
				key.WithKeys("j", "down"),
				key.WithHelp("↓/j", "down"),
			),
			Choose: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "jump to"),
			),
			Close: key.NewBinding(
				key.WithKeys("esc", "q"),
				key.WithHelp("esc", "close"),
			),
		},
	}
}

// Open shows the picker over the given hits.
func (m *Results) Open(query string, hits []search.Result) {
	m.query = query
	m.hits = hits
	m.cursor = 0
	m.Active = true
}

// SetHeight caps how many hits render at once.
func (m *Results) SetHeight(h int) { m.height = h }
