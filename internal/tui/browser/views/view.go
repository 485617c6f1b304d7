package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	pathStyle   = lipgloss.NewStyle().Faint(true)
	matchStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m Results) View() string {
	if !m.Active {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d result(s) for %q", len(m.hits), m.query)))
	b.WriteString("\n")

	height := m.height
	if height < 1 {
		height = 10
	}
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(m.hits) {
		end = len(m.hits)
	}

	for i := start; i < end; i++ {
		hit := m.hits[i]
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("▶ ")
		}
		marker := "▢ "
		if hit.Kind == "folder" {
			marker = "▼ "
		}
		b.WriteString("\n")
		b.WriteString(cursor + marker + hit.Name + " " + pathStyle.Render(hit.Path))
		if hit.Snippet != "" {
			b.WriteString("\n    " + highlightSnippet(hit.Snippet))
		}
	}

	if len(m.hits) > height {
		b.WriteString("\n\n")
		b.WriteString(pathStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(m.hits))))
	}

	return boxStyle.Render(b.String())
}

// highlightSnippet styles the marked fragments the index wraps hits in.
func highlightSnippet(s string) string {
	var b strings.Builder
	for {
		pre, rest, ok := strings.Cut(s, "<match>")
		b.WriteString(pre)
		if !ok {
			break
		}
		hit, tail, _ := strings.Cut(rest, "</match>")
		b.WriteString(matchStyle.Render(hit))
		s = tail
	}
	return b.String()
}
