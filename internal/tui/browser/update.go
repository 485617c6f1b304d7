package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/knarvik/trellis/internal/layout"
	"github.com/knarvik/trellis/internal/tui/browser/components/confirm"
	"github.com/knarvik/trellis/internal/tui/browser/views"
	"github.com/knarvik/trellis/pkg/search"
	"github.com/knarvik/trellis/pkg/tree"
)

// Update handles messages for the TUI.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.results.SetHeight(m.getViewportHeight())
		m.adjustScroll()
		return m, nil

	case views.ChosenMsg:
		if m.jumpTo(msg.Path) {
			m.statusMessage = "Jumped to " + msg.Path
		} else {
			m.statusMessage = fmt.Sprintf("%s is filtered out", msg.Path)
		}
		return m, nil

	case views.ClosedMsg:
		m.statusMessage = ""
		return m, nil

	case confirm.ConfirmedMsg:
		m.deletePending()
		m.refresh()
		return m, nil

	case confirm.CancelledMsg:
		m.pendingDelete = nil
		m.statusMessage = "Delete cancelled"
		return m, nil

	case layoutSavedMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error writing layout: %v", msg.err)
		} else {
			m.statusMessage = fmt.Sprintf("Wrote layout to %s", msg.path)
		}
		return m, nil

	case layoutLoadedMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error reading layout: %v", msg.err)
			return m, nil
		}
		if err := layout.Apply(m.tree, msg.file); err != nil {
			m.statusMessage = fmt.Sprintf("Error applying layout: %v", err)
		} else {
			m.statusMessage = "Layout reloaded from disk"
		}
		m.clipboard = nil
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.confirmDialog.Active {
			var cmd tea.Cmd
			m.confirmDialog, cmd = m.confirmDialog.Update(msg)
			return m, cmd
		}
		if m.results.Active {
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

// updateInput handles keys while the text input owns the keyboard.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.mode == modeFilter {
			m.filter = ""
			m.applyFilter()
		}
		m.closeInput()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.commitInput()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter {
		// The filter applies live, keystroke by keystroke.
		m.filter = m.input.Value()
		m.applyFilter()
		m.refresh()
	}
	return m, cmd
}

// commitInput runs the action the input was opened for.
func (m *Model) commitInput() {
	text := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeFilter:
		// Keep the filter; just hand the keyboard back.
		m.closeInputKeepFilter()
		return

	case modeRename:
		if m.editing != nil && text != "" {
			if err := m.tree.RenameAndMove(m.editing, text); err != nil {
				m.statusMessage = fmt.Sprintf("Error: %v", err)
			} else {
				m.statusMessage = fmt.Sprintf("Now at %q", m.editing.Path())
			}
		}

	case modeDisplayRename:
		m.commitDisplayRename(text)

	case modeNewFolder:
		if text != "" {
			if f, err := m.tree.CreateFolder(text); err != nil {
				m.statusMessage = fmt.Sprintf("Error: %v", err)
			} else {
				m.tree.SetExpanded(f, true)
				m.statusMessage = fmt.Sprintf("Created %q", f.Path())
			}
		}

	case modeSearch:
		m.runSearch(text)
	}

	m.closeInput()
}

// commitDisplayRename renames the value behind the leaf under edit. While the
// leaf still wears the value's own name the stored name follows along; a leaf
// that was renamed apart keeps its stored name and only the record is brought
// up to date.
func (m *Model) commitDisplayRename(text string) {
	l, ok := m.editing.(*tree.Leaf)
	if !ok || text == "" {
		return
	}
	o, ok := l.Value().(*layout.Object)
	if !ok {
		m.statusMessage = "This entry has no editable display name"
		return
	}
	rec := o.Record()
	o.SetDisplayName(text)
	if rec.SortName == "" {
		if err := m.tree.Rename(l, text); err != nil {
			m.statusMessage = fmt.Sprintf("Error: %v", err)
			return
		}
	} else {
		rec.Update(l)
	}
	m.cache.Invalidate()
	m.statusMessage = fmt.Sprintf("Display name is now %q", text)
}

// runSearch queries the index. A single hit is jumped to directly; more open
// the results picker.
func (m *Model) runSearch(text string) {
	if m.index == nil || text == "" {
		return
	}
	q := text
	if m.index.UsesFTS() {
		q = search.Match(text)
	}
	hits, err := m.index.Query(q, nil)
	if err != nil {
		m.statusMessage = fmt.Sprintf("Search error: %v", err)
		return
	}
	switch {
	case len(hits) == 0:
		m.statusMessage = fmt.Sprintf("No matches for %q", text)
	case len(hits) == 1:
		if m.jumpTo(hits[0].Path) {
			m.statusMessage = "Jumped to " + hits[0].Path
		} else {
			m.statusMessage = fmt.Sprintf("%s is filtered out", hits[0].Path)
		}
	default:
		m.results.SetHeight(m.getViewportHeight())
		m.results.Open(text, hits)
	}
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.editing = nil
	m.input.Blur()
	m.input.SetValue("")
}

// closeInputKeepFilter leaves the filter text on screen while returning the
// keyboard to browse mode.
func (m *Model) closeInputKeepFilter() {
	m.mode = modeBrowse
	m.editing = nil
	m.input.Blur()
}

// openInput focuses the text input seeded with the given text.
func (m *Model) openInput(mode inputMode, placeholder, seed string) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(seed)
	m.input.CursorEnd()
	m.input.Focus()
}

// updateBrowse handles keys in plain browse mode.
func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// 'gg' goes to the top; any other key after 'g' falls through.
	if m.lastKey == "g" {
		m.lastKey = ""
		if msg.String() == "g" {
			m.cursor = 0
			m.adjustScroll()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.GoToTop):
		m.lastKey = "g"

	case key.Matches(msg, m.keys.GoToBottom):
		m.cursor = len(m.rows) - 1
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.adjustScroll()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustScroll()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.adjustScroll()
		}

	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.getViewportHeight() / 2
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.adjustScroll()

	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.getViewportHeight() / 2
		if m.cursor >= len(m.rows) {
			m.cursor = len(m.rows) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.adjustScroll()

	case key.Matches(msg, m.keys.Expand):
		if r := m.cursorRow(); r != nil {
			switch n := r.Node.(type) {
			case *tree.Folder:
				m.tree.SetExpanded(n, !n.IsExpanded())
				m.refresh()
			case *tree.Leaf:
				m.statusMessage = describeLeaf(n)
			}
		}

	case key.Matches(msg, m.keys.Collapse):
		if r := m.cursorRow(); r != nil {
			if f, ok := r.Node.(*tree.Folder); ok && f.IsExpanded() {
				m.tree.SetExpanded(f, false)
				m.refresh()
			} else if r.ParentIndex >= 0 {
				m.cursor = r.ParentIndex
				m.adjustScroll()
			}
		}

	case key.Matches(msg, m.keys.ExpandAll):
		m.setAllExpanded(true)

	case key.Matches(msg, m.keys.CollapseAll):
		m.setAllExpanded(false)

	case key.Matches(msg, m.keys.ToggleSelect):
		if r := m.cursorRow(); r != nil {
			m.sel.Toggle(r.Node)
		}

	case key.Matches(msg, m.keys.SelectAll):
		for _, r := range m.rows {
			if r.Visible {
				m.sel.Select(r.Node)
			}
		}
		m.statusMessage = fmt.Sprintf("%d selected", m.sel.Len())

	case key.Matches(msg, m.keys.SelectNone):
		m.sel.Clear()
		m.statusMessage = "Selection cleared"

	case key.Matches(msg, m.keys.Rename):
		if r := m.cursorRow(); r != nil {
			m.editing = r.Node
			m.openInput(modeRename, "new path", r.Node.Path())
		}

	case key.Matches(msg, m.keys.RenameDisplay):
		if r := m.cursorRow(); r != nil {
			if l, ok := r.Node.(*tree.Leaf); ok {
				m.editing = l
				m.openInput(modeDisplayRename, "new display name", l.Value().DisplayName())
			} else {
				m.statusMessage = "Folders have no display name; rename with r"
			}
		}

	case key.Matches(msg, m.keys.NewFolder):
		seed := m.targetFolder().Path()
		if seed != "" {
			seed += "/"
		}
		m.openInput(modeNewFolder, "folder path", seed)

	case key.Matches(msg, m.keys.Delete):
		m.armDelete()

	case key.Matches(msg, m.keys.Cut):
		if r := m.cursorRow(); r != nil {
			m.clipboard = r.Node
			m.statusMessage = fmt.Sprintf("Cut %q (p pastes, m merges)", r.Node.Path())
		}

	case key.Matches(msg, m.keys.Paste):
		m.pasteClipboard()

	case key.Matches(msg, m.keys.Merge):
		m.mergeClipboard()

	case key.Matches(msg, m.keys.Lock):
		if r := m.cursorRow(); r != nil {
			locked := !r.Node.Flags().Has(tree.Locked)
			m.tree.SetLocked(r.Node, locked)
			if locked {
				m.statusMessage = fmt.Sprintf("Locked %q", r.Node.Path())
			} else {
				m.statusMessage = fmt.Sprintf("Unlocked %q", r.Node.Path())
			}
		}

	case key.Matches(msg, m.keys.Sort):
		m.sortIndex = (m.sortIndex + 1) % len(tree.SortModes)
		mode := tree.SortModes[m.sortIndex]
		m.cache.SetSortMode(mode)
		m.statusMessage = "Sort: " + mode.Name()
		m.refresh()

	case key.Matches(msg, m.keys.Filter):
		m.openInput(modeFilter, "filter by name", m.filter)

	case key.Matches(msg, m.keys.Search):
		m.openInput(modeSearch, "search names and notes", "")

	case key.Matches(msg, m.keys.Save):
		if m.layoutPath == "" {
			m.statusMessage = "No layout file configured"
			return m, nil
		}
		// Snapshot here, on the update goroutine; only the write is async.
		return m, saveLayoutCmd(layout.Snapshot(m.tree), m.layoutPath)

	case key.Matches(msg, m.keys.Reload):
		if m.layoutPath == "" {
			m.statusMessage = "No layout file configured"
			return m, nil
		}
		return m, loadLayoutCmd(m.layoutPath)
	}

	return m, nil
}

// armDelete asks for confirmation before deleting the selection, or the
// cursor row when nothing is selected.
func (m *Model) armDelete() {
	if m.sel.Len() > 0 {
		m.pendingDelete = m.sel.Nodes()
		m.confirmDialog.Activate(fmt.Sprintf("Delete %d selected object(s)?", len(m.pendingDelete)))
		return
	}
	r := m.cursorRow()
	if r == nil {
		return
	}
	m.pendingDelete = []tree.Node{r.Node}
	m.confirmDialog.Activate(fmt.Sprintf("Delete %q?", r.Node.Path()))
}

// deletePending deletes the armed nodes. A node whose ancestor was deleted
// moments before is already gone and is skipped.
func (m *Model) deletePending() {
	deleted := 0
	var firstErr error
	for _, n := range m.pendingDelete {
		if !attached(n) {
			continue
		}
		if err := m.tree.Delete(n); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	m.pendingDelete = nil
	if firstErr != nil {
		m.statusMessage = fmt.Sprintf("Deleted %d, first error: %v", deleted, firstErr)
		return
	}
	m.statusMessage = fmt.Sprintf("Deleted %d object(s)", deleted)
}

// attached reports whether n still hangs off a tree root.
func attached(n tree.Node) bool {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return tree.IsRoot(n)
}

func (m *Model) pasteClipboard() {
	if m.clipboard == nil {
		m.statusMessage = "Nothing cut; cut with x first"
		return
	}
	if !attached(m.clipboard) {
		m.statusMessage = "The cut object is gone"
		m.clipboard = nil
		return
	}
	target := m.targetFolder()
	if err := m.tree.Move(m.clipboard, target); err != nil {
		m.statusMessage = fmt.Sprintf("Error: %v", err)
		return
	}
	m.statusMessage = fmt.Sprintf("Moved to %q", m.clipboard.Path())
	m.clipboard = nil
	m.refresh()
}

func (m *Model) mergeClipboard() {
	if m.clipboard == nil {
		m.statusMessage = "Nothing cut; cut a folder with x first"
		return
	}
	src, ok := m.clipboard.(*tree.Folder)
	if !ok {
		m.statusMessage = "Only folders merge; paste leaves with p"
		return
	}
	if !attached(src) {
		m.statusMessage = "The cut folder is gone"
		m.clipboard = nil
		return
	}
	target := m.targetFolder()
	if err := m.tree.Merge(src, target); err != nil {
		m.statusMessage = fmt.Sprintf("Error: %v", err)
		return
	}
	m.statusMessage = fmt.Sprintf("Merged into %q", target.Path())
	m.clipboard = nil
	m.refresh()
}

func (m *Model) setAllExpanded(on bool) {
	m.tree.Walk(func(n tree.Node) bool {
		if f, ok := n.(*tree.Folder); ok && !tree.IsRoot(f) {
			m.tree.SetExpanded(f, on)
		}
		return tree.Continue
	})
	m.refresh()
}

func describeLeaf(l *tree.Leaf) string {
	v := l.Value()
	rec := v.Record()
	if rec.SortName != "" {
		return fmt.Sprintf("%s [stored as %q]", v.DisplayName(), rec.SortName)
	}
	return fmt.Sprintf("%s [%s]", v.DisplayName(), v.Identifier())
}
