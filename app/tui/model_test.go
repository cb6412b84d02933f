package tui

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/uri"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/ast/asttest"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/framework/session"
	"github.com/lexcodex/structedit/server"
	"github.com/lexcodex/structedit/service"
)

// storeClient answers requests from a server.Store without a connection.
type storeClient struct {
	store   *server.Store
	failing bool
}

func (c *storeClient) uri(path string) uri.URI {
	return uri.File(filepath.Join(c.store.Root(), path))
}

func (c *storeClient) OpenFile(ctx context.Context, path string) (*ast.SourceFile, error) {
	return c.store.Open(c.uri(path))
}

func (c *storeClient) Edit(ctx context.Context, path string, payload service.EditPayload) (*ast.SourceFile, error) {
	if c.failing {
		return nil, errors.New("service unavailable")
	}
	doc, err := c.store.Apply(c.uri(path), payload)
	if err != nil {
		return nil, err
	}
	data, err := ast.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return ast.UnmarshalFile(data)
}

func (c *storeClient) Close() error { return nil }

func newModel(t *testing.T) (Model, *storeClient) {
	t.Helper()
	dir := t.TempDir()
	data, err := ast.Marshal(asttest.Program().File)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.ast.json"), data, 0o644))

	store, err := server.NewStore(dir)
	require.NoError(t, err)
	client := &storeClient{store: store}
	s := session.New(session.Options{
		Path:   "main.ast.json",
		Client: client,
		Logger: log.New(io.Discard, "", 0),
	})
	require.NoError(t, s.Open(context.Background()))

	m := NewModel(context.Background(), s, keymap.Default())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), client
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// finishSync runs the command returned by an edit and feeds the service reply
// back into the model.
func finishSync(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd, "edit should start a round trip")
	for _, msg := range collect(cmd) {
		if done, ok := msg.(syncDoneMsg); ok {
			next, _ := m.Update(done)
			m = next.(Model)
		}
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func declIDs(m Model) []string {
	var ids []string
	for _, d := range m.session.Root().Declarations {
		ids = append(ids, d.NodeID())
	}
	return ids
}

func TestNavigationFollowsKeymap(t *testing.T) {
	m, _ := newModel(t)
	assert.Equal(t, "x", m.session.Focus().Selected().NodeID)
	assert.Equal(t, keymap.ModeView, m.Mode())

	m, _ = press(t, m, runes("j"))
	assert.Equal(t, "y", m.session.Focus().Selected().NodeID)
	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, runes("l"))
	assert.Equal(t, "a", m.session.Focus().Selected().NodeID)
	m, _ = press(t, m, runes("h"))
	assert.Equal(t, "foo", m.session.Focus().Selected().NodeID)
	assert.Equal(t, string(ast.KindFunctionDefinition), m.statusBar.kind)

	before := m.session.Fingerprint()
	m, cmd := press(t, m, runes("z"))
	assert.Nil(t, cmd, "unbound keys dispatch nothing")
	assert.Equal(t, before, m.session.Fingerprint())
}

func TestInsertTypeCompleteAndSync(t *testing.T) {
	m, client := newModel(t)
	m, _ = press(t, m, runes("j"))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, keymap.ModeEdit, m.Mode(), "a new placeholder opens for typing")
	m = finishSync(t, m, cmd)
	require.Len(t, declIDs(m), 5)

	m, _ = press(t, m, runes("int w"))
	require.NotEmpty(t, m.Suggestions())
	assert.Equal(t, "int", m.Suggestions()[0].Candidate.Label)

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, keymap.ModeView, m.Mode())
	m = finishSync(t, m, cmd)

	decl, ok := m.session.Root().Declarations[2].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, "w", decl.Name)
	assert.Equal(t, "int", decl.Type)
	assert.False(t, m.session.Dirty())
	assert.False(t, m.statusBar.isError)

	stored, err := client.store.Open(client.uri("main.ast.json"))
	require.NoError(t, err)
	assert.Equal(t, decl.ID, stored.Declarations[2].NodeID(), "service holds the same tree")
	assert.Contains(t, m.View(), "int w;")
}

func TestCompleteWaitsForSync(t *testing.T) {
	m, _ := newModel(t)
	m, pending := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, keymap.ModeEdit, m.Mode())
	require.True(t, m.session.Busy())

	m, _ = press(t, m, runes("int count"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
	assert.Equal(t, keymap.ModeEdit, m.Mode(), "typing survives a busy session")
	assert.Equal(t, "int count", m.input.Value())
	assert.True(t, m.statusBar.isError)
	require.Len(t, declIDs(m), 5)

	m = finishSync(t, m, pending)
	assert.Equal(t, keymap.ModeEdit, m.Mode())
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, keymap.ModeView, m.Mode())
	m = finishSync(t, m, cmd)

	decl, ok := m.session.Root().Declarations[1].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, "count", decl.Name)
}

func TestEditFieldText(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(t, m, runes("i"))
	require.Equal(t, keymap.ModeEdit, m.Mode())
	assert.Equal(t, ast.FieldName, m.target.Field)
	assert.Equal(t, "x", m.input.Value())

	m, _ = press(t, m, runes("count"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, keymap.ModeView, m.Mode())
	m = finishSync(t, m, cmd)
	assert.Equal(t, "xcount", m.session.Root().Declarations[0].(*ast.VariableDeclaration).Name)
	assert.Equal(t, "x", m.session.Focus().Selected().NodeID)
}

func TestEditsRejectedWhileSyncing(t *testing.T) {
	m, _ := newModel(t)

	m, cmd := press(t, m, runes("J"))
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"y", "x", "foo", "z"}, declIDs(m))

	m, second := press(t, m, runes("J"))
	assert.Nil(t, second)
	assert.True(t, m.statusBar.isError)
	assert.Equal(t, []string{"y", "x", "foo", "z"}, declIDs(m), "tree untouched while busy")

	m = finishSync(t, m, cmd)
	assert.False(t, m.statusBar.isError)
	assert.Equal(t, "saved main.ast.json", m.statusBar.message)

	m, cmd = press(t, m, runes("J"))
	m = finishSync(t, m, cmd)
	assert.Equal(t, []string{"y", "foo", "x", "z"}, declIDs(m))
}

func TestFailedSyncKeepsTree(t *testing.T) {
	m, client := newModel(t)
	client.failing = true

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyDelete})
	m = finishSync(t, m, cmd)
	assert.True(t, m.statusBar.isError)
	assert.Contains(t, m.statusBar.message, "service unavailable")
	assert.Equal(t, []string{"y", "foo", "z"}, declIDs(m), "local edit survives a failed round trip")
	assert.True(t, m.session.Dirty())
	assert.False(t, m.session.Busy())
}

func TestProject(t *testing.T) {
	fx := asttest.Program()
	lines, line := Project(index.Build(fx.File), "ref-x")
	require.Len(t, lines, 7)
	assert.Equal(t, 3, line)
	assert.Contains(t, lines[2], "foo(")
	assert.Contains(t, lines[3], "x;")
	assert.True(t, strings.HasPrefix(lines[3], indentUnit))
	assert.Contains(t, lines[4], "return")

	fx.RefX.TargetID = "gone"
	lines, _ = Project(index.Build(fx.File), "")
	assert.Contains(t, lines[3], "⟨ref⟩")

	empty := &ast.SourceFile{ID: "file"}
	lines, line = Project(index.Build(empty), "file")
	assert.Equal(t, 0, line)
	assert.Contains(t, lines[0], "empty document")
}
