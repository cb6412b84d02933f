package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/structedit/framework/complete"
	"github.com/lexcodex/structedit/framework/keymap"
)

// View composes the projection, the completion list, the prompt bar, and the
// status bar.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.projection.View(),
		m.renderSuggestions(),
		m.renderPromptBar(),
		m.statusBar.View(m.width),
	)
}

func (m Model) renderSuggestions() string {
	rows := make([]string, maxSuggestions)
	if m.mode == keymap.ModeEdit {
		start := 0
		if m.choice >= maxSuggestions {
			start = m.choice - maxSuggestions + 1
		}
		for i := 0; i < maxSuggestions && start+i < len(m.suggestions); i++ {
			idx := start + i
			row := renderSuggestion(m.suggestions[idx])
			if idx == m.choice {
				row = choiceStyle.Render("> " + row)
			} else {
				row = "  " + row
			}
			rows[i] = row
		}
	}
	return strings.Join(rows, "\n")
}

// renderSuggestion highlights the matched runes of a candidate label.
func renderSuggestion(s complete.Suggestion) string {
	hit := make(map[int]bool, len(s.Indices))
	for _, i := range s.Indices {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range []rune(s.Candidate.Label) {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	if s.Candidate.Detail != "" {
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(s.Candidate.Detail))
	}
	return b.String()
}

func (m Model) renderPromptBar() string {
	if m.mode != keymap.ModeEdit {
		hint := dimStyle.Render("i edit | enter/shift+enter insert | delete | J/K move | >/< nest | s sync | q quit")
		return promptBarStyle.Width(m.width).Render(hint)
	}
	label := string(m.target.Field)
	if label == "" {
		label = "replace"
	}
	hint := dimStyle.Render(" tab complete | esc done")
	return promptBarStyle.Width(m.width).Render(label + "> " + m.input.View() + hint)
}
