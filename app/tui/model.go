// Package tui projects an open document as structured C source in the
// terminal and maps key presses to editor commands.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	runtimesvc "github.com/lexcodex/structedit/app/runtime"
	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/complete"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/framework/session"
)

const maxSuggestions = 6

// Run opens path and runs the editor until the user quits.
func Run(ctx context.Context, rt *runtimesvc.Runtime, path string) error {
	if rt == nil {
		return fmt.Errorf("runtime is required")
	}
	s, closeFn, err := rt.OpenSession(ctx, path)
	if err != nil {
		return err
	}
	defer closeFn()
	model := NewModel(ctx, s, rt.Keymap)
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	_, err = program.Run()
	return err
}

// Model implements the Bubble Tea Model interface for one session.
type Model struct {
	ctx     context.Context
	session *session.Session
	keys    *keymap.Keymap

	projection viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	statusBar  StatusBar

	mode        keymap.Mode
	target      focus.Request
	suggestions []complete.Suggestion
	choice      int
	syncing     bool

	width  int
	height int
	ready  bool
}

// NewModel builds the editor over an opened session.
func NewModel(ctx context.Context, s *session.Session, keys *keymap.Keymap) Model {
	if keys == nil {
		keys = keymap.Default()
	}
	input := textinput.New()
	input.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	m := Model{
		ctx:        ctx,
		session:    s,
		keys:       keys,
		projection: viewport.New(0, 0),
		input:      input,
		spinner:    sp,
		mode:       keymap.ModeView,
		statusBar:  StatusBar{path: s.Path(), mode: keymap.ModeView},
	}
	return m.refresh()
}

// Mode returns the active input mode.
func (m Model) Mode() keymap.Mode { return m.mode }

// Suggestions returns the completion proposals for the field being edited.
func (m Model) Suggestions() []complete.Suggestion { return m.suggestions }

// beginEdit switches to edit mode on req. An empty field edits the node's
// primary text field; nodes without text can still be replaced through
// completion.
func (m Model) beginEdit(req focus.Request) Model {
	node, ok := m.session.Index().Node(req.NodeID)
	if !ok {
		return m
	}
	if req.Field == "" {
		if fields := ast.ScalarFields(node); len(fields) > 0 {
			req.Field = fields[len(fields)-1]
		}
	}
	value := ""
	if req.Field != "" {
		value, _ = ast.Scalar(node, req.Field)
	}
	m.mode = keymap.ModeEdit
	m.target = req
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.statusBar.mode = m.mode
	return m.suggest()
}

func (m Model) endEdit() Model {
	m.mode = keymap.ModeView
	m.target = focus.Request{}
	m.suggestions = nil
	m.choice = 0
	m.input.Blur()
	m.input.SetValue("")
	m.statusBar.mode = m.mode
	return m
}

func (m Model) suggest() Model {
	m.suggestions = complete.Suggest(m.session.Index(), m.target.NodeID, m.input.Value())
	if m.choice >= len(m.suggestions) {
		m.choice = 0
	}
	return m
}

// refresh consumes the pending focus request and redraws the projection. A
// request aimed at a placeholder's text opens it for typing.
func (m Model) refresh() Model {
	if req, ok := m.session.Focus().Consume(); ok && m.mode == keymap.ModeView && req.Field != "" {
		if node, found := m.session.Index().Node(req.NodeID); found {
			if _, placeholder := node.(*ast.Unknown); placeholder {
				m = m.beginEdit(req)
			}
		}
	}
	selected := m.session.Focus().Selected().NodeID
	m.statusBar.kind = ""
	if node, ok := m.session.Index().Node(selected); ok {
		m.statusBar.kind = string(node.Kind())
	}
	m.statusBar.dirty = m.session.Dirty()
	if !m.ready {
		return m
	}
	lines, line := Project(m.session.Index(), selected)
	m.projection.SetContent(joinLines(lines))
	if line >= 0 {
		if line < m.projection.YOffset {
			m.projection.SetYOffset(line)
		} else if line >= m.projection.YOffset+m.projection.Height {
			m.projection.SetYOffset(line - m.projection.Height + 1)
		}
	}
	return m
}

func (m Model) setStatus(text string, isError bool) Model {
	m.statusBar.message = text
	m.statusBar.isError = isError
	return m
}

func joinLines(lines []string) string {
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
