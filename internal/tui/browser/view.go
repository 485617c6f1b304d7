package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/knarvik/trellis/pkg/tree"
	"github.com/knarvik/trellis/pkg/view"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	lockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	mutedStyle     = lipgloss.NewStyle().Faint(true)
	connectorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	promptStyle    = lipgloss.NewStyle().Bold(true)
)

func (m Model) View() string {
	header := m.renderHeader()
	content := m.renderTreeView()
	if m.results.Active {
		content = m.results.View()
	}

	var prompt string
	switch {
	case m.confirmDialog.Active:
		prompt = m.confirmDialog.View()
	case m.mode != modeBrowse:
		prompt = m.renderInput()
	default:
		prompt = mutedStyle.Render(m.statusMessage)
	}

	footer := m.help.View(m.keys)

	fullView := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"", // This adds a blank line for spacing
		content,
		"", // Another blank line for spacing
		prompt,
		footer,
	)

	// Add top margin to prevent border cutoff
	return "\n" + fullView
}

func (m Model) renderHeader() string {
	parts := []string{
		headerStyle.Render("Trellis"),
		m.tree.Name(),
		fmt.Sprintf("%d objects", m.tree.Len()),
		"sort: " + m.cache.SortMode().Name(),
	}
	if m.filter != "" {
		parts = append(parts, fmt.Sprintf("filter: %q", m.filter))
	}
	if n := m.sel.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if m.clipboard != nil {
		parts = append(parts, fmt.Sprintf("cut: %s", compactPath(m.clipboard.Path(), 32)))
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderInput() string {
	var label string
	switch m.mode {
	case modeFilter:
		label = "Filter:"
	case modeRename:
		label = "Rename to:"
	case modeDisplayRename:
		label = "Display name:"
	case modeNewFolder:
		label = "New folder:"
	case modeSearch:
		label = "Search:"
	}
	return promptStyle.Render(label) + " " + m.input.View()
}

func (m Model) renderTreeView() string {
	if len(m.rows) == 0 {
		if m.filter != "" {
			return mutedStyle.Render("Nothing matches the filter. esc clears it.")
		}
		return mutedStyle.Render("The tree is empty. F creates a folder.")
	}

	var b strings.Builder

	// Viewport calculation
	viewportHeight := m.getViewportHeight()
	start := m.scrollOffset
	end := start + viewportHeight
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(m.rows) > viewportHeight {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" (%d-%d of %d)", start+1, end, len(m.rows))))
	}

	return b.String()
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]

	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("▶ ")
	}
	selected := "  "
	if r.Node.Flags().Has(tree.Selected) {
		selected = selectedStyle.Render("✓ ")
	}
	prefix := connectorStyle.Render(view.Connectors(m.rows, i))

	var label string
	switch n := r.Node.(type) {
	case *tree.Folder:
		fold := "▼ "
		if !n.IsExpanded() {
			fold = "▶ "
		}
		label = fold + r.Item.label
		if !n.IsExpanded() && n.TotalDescendants() > 0 {
			label += mutedStyle.Render(fmt.Sprintf(" (%d)", n.TotalDescendants()))
		}
	case *tree.Leaf:
		label = "▢ " + r.Item.label
		if r.Item.note != "" {
			label += mutedStyle.Render(" ≡")
		}
	}
	if r.Node.Flags().Has(tree.Locked) {
		label += lockedStyle.Render(" [locked]")
	}

	line := cursor + selected + prefix + label
	if i == m.cursor {
		return lipgloss.NewStyle().Bold(true).Render(line)
	}
	if !r.Visible {
		// Kept onscreen only to anchor filtered descendants.
		return mutedStyle.Render(line)
	}
	return line
}
