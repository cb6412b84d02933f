package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/edit"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/framework/session"
)

// syncDoneMsg carries the language service's reply to one ticket.
type syncDoneMsg struct {
	ticket session.Ticket
	tree   *ast.SourceFile
	err    error
}

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update applies incoming Bubble Tea messages to mutate the Model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		if m.mode == keymap.ModeEdit {
			return m.handleEditMode(msg)
		}
		return m.handleViewMode(msg)
	case syncDoneMsg:
		return m.handleSyncDone(msg)
	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.syncing = m.spinner.View()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.projection.Width = msg.Width
	m.projection.Height = max(1, msg.Height-2-maxSuggestions)
	m.input.Width = max(10, msg.Width-20)
	return m.refresh(), nil
}

func (m Model) handleViewMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, ok := m.keys.Dispatch(keymap.ModeView, msg.String())
	if !ok {
		return m, nil
	}
	switch cmd {
	case keymap.Quit:
		return m, tea.Quit
	case keymap.EnterEdit:
		if m.session.Busy() {
			return m.setStatus("busy: waiting for language service", true), nil
		}
		return m.beginEdit(m.session.Focus().Selected()).refresh(), nil
	case keymap.Sync:
		return m.startSync()
	}
	return m.apply(cmd)
}

// apply runs a command through the session and syncs applied edits.
func (m Model) apply(cmd keymap.Command) (tea.Model, tea.Cmd) {
	out, err := m.session.Apply(m.ctx, cmd)
	return m.afterEdit(string(cmd), out, err)
}

func (m Model) afterEdit(name string, out edit.Outcome, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			return m.setStatus("busy: waiting for language service", true).refresh(), nil
		}
		return m.setStatus(err.Error(), true).refresh(), nil
	}
	if !out.Applied {
		m = m.refresh()
		if m.session.Dirty() {
			return m.startSync()
		}
		return m, nil
	}
	m = m.setStatus(name, false).refresh()
	return m.startSync()
}

func (m Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if cmd, ok := m.keys.Dispatch(keymap.ModeEdit, key); ok {
		switch cmd {
		case keymap.Quit:
			return m, tea.Quit
		case keymap.LeaveEdit:
			return m.commitText()
		case keymap.Complete:
			return m.acceptSuggestion()
		}
		if cmd.Structural() {
			next, _ := m.commitLocal()
			return next.apply(cmd)
		}
		return m, nil
	}
	switch key {
	case "up":
		if m.choice > 0 {
			m.choice--
		}
		return m, nil
	case "down":
		if m.choice < len(m.suggestions)-1 {
			m.choice++
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m.suggest(), cmd
}

// commitText stores the typed text in the edited field, leaves edit mode, and
// syncs when the text changed.
func (m Model) commitText() (tea.Model, tea.Cmd) {
	next, changed := m.commitLocal()
	next = next.refresh()
	if !changed {
		return next, nil
	}
	return next.startSync()
}

// commitLocal applies the typed text to the tree without contacting the
// language service. Focus returns to the edited node's handle. While a round
// trip is in flight the editor stays in edit mode.
func (m Model) commitLocal() (Model, bool) {
	target := m.target
	value := m.input.Value()
	if m.session.Busy() {
		return m.setStatus("busy: waiting for language service", true), false
	}
	m = m.endEdit()
	if target.NodeID == "" {
		return m, false
	}
	m.session.Focus().Request(focus.Handle(target.NodeID))
	if target.Field == "" {
		return m, false
	}
	node, ok := m.session.Index().Node(target.NodeID)
	if !ok {
		return m, false
	}
	if current, _ := ast.Scalar(node, target.Field); current == value {
		return m, false
	}
	out, err := m.session.SetText(m.ctx, target.NodeID, target.Field, value)
	m.session.Focus().Request(focus.Handle(target.NodeID))
	if err != nil {
		return m.setStatus(err.Error(), true), false
	}
	if out.Applied {
		m = m.setStatus("set "+string(target.Field), false)
	}
	return m, out.Applied
}

// acceptSuggestion replaces the edited node with the chosen candidate, built
// from the typed text. While a round trip is in flight the editor stays in
// edit mode with the typed text intact.
func (m Model) acceptSuggestion() (tea.Model, tea.Cmd) {
	if len(m.suggestions) == 0 {
		return m.setStatus("no completion", true), nil
	}
	if m.session.Busy() {
		return m.setStatus("busy: waiting for language service", true), nil
	}
	choice := m.suggestions[m.choice]
	node := choice.Candidate.Build(m.input.Value())
	target := m.target.NodeID
	m = m.endEdit()
	if node == nil {
		return m.refresh(), nil
	}
	out, err := m.session.Replace(m.ctx, target, node)
	return m.afterEdit("insert "+choice.Candidate.Label, out, err)
}

// startSync sends the pending edit unless a round trip is already in flight.
func (m Model) startSync() (tea.Model, tea.Cmd) {
	if m.session.Busy() {
		return m, nil
	}
	ticket, err := m.session.BeginSync()
	if err != nil {
		return m.setStatus(err.Error(), true), nil
	}
	m.syncing = true
	m.statusBar.syncing = m.spinner.View()
	return m, tea.Batch(m.spinner.Tick, sendTicket(m.ctx, m.session, ticket))
}

func sendTicket(ctx context.Context, s *session.Session, ticket session.Ticket) tea.Cmd {
	return func() tea.Msg {
		tree, err := s.Send(ctx, ticket)
		return syncDoneMsg{ticket: ticket, tree: tree, err: err}
	}
}

func (m Model) handleSyncDone(msg syncDoneMsg) (tea.Model, tea.Cmd) {
	err := m.session.Complete(msg.ticket, msg.tree, msg.err)
	if errors.Is(err, session.ErrStaleResponse) {
		return m, nil
	}
	m.syncing = false
	m.statusBar.syncing = ""
	if err != nil {
		return m.setStatus(err.Error(), true).refresh(), nil
	}
	status := "saved " + filepath.Base(m.session.Path())
	if notices := m.session.Notices(); len(notices) > 0 {
		status = strings.Join(notices, "; ")
	}
	return m.setStatus(status, false).refresh(), nil
}
