// Package browser is the interactive tree browser TUI. It renders the
// flattened projection of a live tree and drives every edit through the
// tree's mutation API, so the projection, the selection and the search index
// stay in step through the change bus.
package browser

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/knarvik/trellis/internal/layout"
	"github.com/knarvik/trellis/internal/tui/browser/components/confirm"
	"github.com/knarvik/trellis/internal/tui/browser/views"
	"github.com/knarvik/trellis/pkg/search"
	"github.com/knarvik/trellis/pkg/selection"
	"github.com/knarvik/trellis/pkg/tree"
	"github.com/knarvik/trellis/pkg/view"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeFilter
	modeRename
	modeDisplayRename
	modeNewFolder
	modeSearch
)

// item is the row payload carried by the view cache: everything the renderer
// needs that is not a live flag.
type item struct {
	label  string
	note   string
	folder bool
}

func convertNode(n tree.Node) item {
	switch n := n.(type) {
	case *tree.Leaf:
		it := item{label: n.Value().DisplayName()}
		if o, ok := n.Value().(*layout.Object); ok {
			it.note = o.Note()
		}
		return it
	default:
		return item{label: n.Name(), folder: true}
	}
}

// Model is the main model for the tree browser TUI.
type Model struct {
	tree  *tree.Tree
	cache *view.Cache[item]
	sel   *selection.Tracker
	index *search.Index
	log   *logrus.Logger

	// layoutPath is where w saves and ctrl+r reloads the layout; empty
	// disables both.
	layoutPath string

	rows         []*view.Row[item]
	cursor       int
	scrollOffset int
	width        int
	height       int

	keys          KeyMap
	help          help.Model
	input         textinput.Model
	confirmDialog confirm.Model
	results       views.Results

	mode          inputMode
	lastKey       string // For detecting 'gg'
	filter        string
	statusMessage string

	// editing is the node the rename input is acting on.
	editing tree.Node

	// clipboard holds the node armed by cut, consumed by paste or merge.
	clipboard tree.Node
	// pendingDelete holds the nodes awaiting dialog confirmation.
	pendingDelete []tree.Node

	sortIndex int
}

// New creates the browser model around an already populated tree. index may
// be nil, which disables search; layoutPath may be empty, which disables
// saving and reloading from disk.
func New(t *tree.Tree, sel *selection.Tracker, index *search.Index, layoutPath string, log *logrus.Logger) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 60

	cache := view.NewCache[item]("browser", t, convertNode)

	m := Model{
		tree:          t,
		cache:         cache,
		sel:           sel,
		index:         index,
		layoutPath:    layoutPath,
		log:           log,
		keys:          keys,
		help:          help.New(),
		input:         ti,
		confirmDialog: confirm.New(),
		results:       views.NewResults(),
	}
	m.refresh()
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSortMode sets the starting display order before the program runs.
func (m *Model) SetSortMode(mode tree.SortMode) {
	m.cache.SetSortMode(mode)
	for i, s := range tree.SortModes {
		if s == mode {
			m.sortIndex = i
			break
		}
	}
	m.refresh()
}

// refresh pulls the current rows out of the cache and keeps the cursor on a
// valid line.
func (m *Model) refresh() {
	m.rows = m.cache.Update()
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

// applyFilter installs the substring filter for the current filter text.
func (m *Model) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(m.filter))
	if needle == "" {
		m.cache.SetFilter(nil)
		return
	}
	m.cache.SetFilter(func(r *view.Row[item], _ int) bool {
		return strings.Contains(strings.ToLower(r.Item.label), needle)
	})
}

// cursorRow returns the row under the cursor, or nil on an empty list.
func (m *Model) cursorRow() *view.Row[item] {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

// targetFolder returns the folder edits under the cursor land in: the folder
// itself on a folder row, the containing folder on a leaf row, the root on
// an empty list.
func (m *Model) targetFolder() *tree.Folder {
	r := m.cursorRow()
	if r == nil {
		return m.tree.Root()
	}
	if f, ok := r.Node.(*tree.Folder); ok {
		return f
	}
	return r.Node.Parent()
}

// jumpTo moves the cursor to the row showing path, expanding ancestors as
// needed. It reports whether the path is on screen now.
func (m *Model) jumpTo(path string) bool {
	n, ok := m.tree.Find(path)
	if !ok {
		return false
	}
	for _, anc := range tree.Ancestors(n) {
		m.tree.SetExpanded(anc, true)
	}
	m.refresh()
	for i, r := range m.rows {
		if r.Node == n {
			m.cursor = i
			m.adjustScroll()
			return true
		}
	}
	return false
}

func (m *Model) adjustScroll() {
	viewportHeight := m.getViewportHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+viewportHeight {
		m.scrollOffset = m.cursor - viewportHeight + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m *Model) getViewportHeight() int {
	// Header, status line, input line and help footer take fixed space.
	h := m.height - 6
	if h < 1 {
		return 10
	}
	return h
}
