package views

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ChosenMsg reports the hit the user picked.
type ChosenMsg struct {
	Path string
}

// ClosedMsg reports that the picker was dismissed.
type ClosedMsg struct{}

func (m Results) Update(msg tea.Msg) (Results, tea.Cmd) {
	if !m.Active {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.hits)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Choose):
			if m.cursor < len(m.hits) {
				path := m.hits[m.cursor].Path
				m.Active = false
				return m, func() tea.Msg { return ChosenMsg{Path: path} }
			}
		case key.Matches(msg, m.keys.Close):
			m.Active = false
			return m, func() tea.Msg { return ClosedMsg{} }
		}
	}

	return m, nil
}
