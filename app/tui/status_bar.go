package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/structedit/framework/keymap"
)

// StatusBar renders the document, mode, and the latest message.
type StatusBar struct {
	path    string
	mode    keymap.Mode
	kind    string
	dirty   bool
	syncing string
	message string
	isError bool
}

func (s StatusBar) View(width int) string {
	path := truncate(s.path, 32)
	if s.dirty {
		path += " •"
	}
	left := fmt.Sprintf("%s | %s", path, strings.ToUpper(string(s.mode)))
	if s.kind != "" {
		left += " | " + s.kind
	}
	if s.syncing != "" {
		left += " | " + s.syncing + " syncing"
	}
	right := s.message
	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	style := statusStyle
	if s.isError {
		style = statusErrorStyle
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:1]
	}
	return "…" + s[len(s)-n+1:]
}
