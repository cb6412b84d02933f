package session

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/ast/asttest"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/persistence"
	"github.com/lexcodex/structedit/service"
)

// echoClient plays a language service that accepts every edit verbatim.
type echoClient struct {
	doc     *ast.SourceFile
	edits   []service.EditPayload
	failure error
	notices []string
}

func (c *echoClient) OpenFile(ctx context.Context, path string) (*ast.SourceFile, error) {
	return c.copy()
}

func (c *echoClient) Edit(ctx context.Context, path string, payload service.EditPayload) (*ast.SourceFile, error) {
	c.edits = append(c.edits, payload)
	if c.failure != nil {
		return nil, c.failure
	}
	node, err := ast.Unmarshal(payload.Node)
	if err != nil {
		return nil, err
	}
	if file, ok := node.(*ast.SourceFile); ok {
		c.doc = file
	}
	return c.copy()
}

func (c *echoClient) Close() error { return nil }

func (c *echoClient) Notices() []string {
	out := c.notices
	c.notices = nil
	return out
}

func (c *echoClient) copy() (*ast.SourceFile, error) {
	data, err := ast.Marshal(c.doc)
	if err != nil {
		return nil, err
	}
	return ast.UnmarshalFile(data)
}

type memoryJournal struct {
	entries []persistence.Entry
}

func (j *memoryJournal) Record(ctx context.Context, e persistence.Entry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *memoryJournal) History(ctx context.Context, document string, limit int) ([]persistence.Entry, error) {
	return j.entries, nil
}

func (j *memoryJournal) Close() error { return nil }

func open(t *testing.T, client *echoClient, journal persistence.Journal) *Session {
	t.Helper()
	s := New(Options{
		Path:    "main.ast.json",
		Client:  client,
		Journal: journal,
		Logger:  log.New(io.Discard, "", 0),
	})
	require.NoError(t, s.Open(context.Background()))
	return s
}

func TestOpenFocusesFirstDeclaration(t *testing.T) {
	s := open(t, &echoClient{doc: asttest.Program().File}, nil)
	req, ok := s.Focus().Consume()
	require.True(t, ok)
	assert.Equal(t, "x", req.NodeID)
	assert.Equal(t, 10, s.Index().Len())
	assert.NotZero(t, s.Fingerprint())
}

func TestOpenRejectsDuplicateIDs(t *testing.T) {
	file := &ast.SourceFile{ID: "f", Declarations: []ast.Decl{
		&ast.Comment{ID: "c"}, &ast.Comment{ID: "c"},
	}}
	s := New(Options{Path: "p", Client: &echoClient{doc: file}, Logger: log.New(io.Discard, "", 0)})
	assert.ErrorIs(t, s.Open(context.Background()), ast.ErrDuplicateID)
	_, err := s.Apply(context.Background(), keymap.Delete)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestApplyNavigatesAndEdits(t *testing.T) {
	journal := &memoryJournal{}
	s := open(t, &echoClient{doc: asttest.Program().File}, journal)
	ctx := context.Background()

	out, err := s.Apply(ctx, keymap.FocusNext)
	require.NoError(t, err)
	assert.Equal(t, "y", out.Focus.NodeID)
	assert.Equal(t, "y", s.Current())

	out, err = s.Apply(ctx, keymap.InsertSiblingAfter)
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.True(t, s.Dirty())
	require.NoError(t, s.Index().Check())
	require.Len(t, s.Root().Declarations, 5)

	require.Len(t, journal.entries, 1, "navigation is not journaled")
	assert.Equal(t, "insert-sibling-after", journal.entries[0].Command)
	assert.Equal(t, "main.ast.json", journal.entries[0].Document)
	assert.True(t, journal.entries[0].Applied)

	out, err = s.Apply(ctx, keymap.EnterEdit)
	require.NoError(t, err)
	assert.Equal(t, false, out.Applied)
}

func TestApplyRejectedWhileInFlight(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)
	ctx := context.Background()

	ticket, err := s.BeginSync()
	require.NoError(t, err)
	assert.True(t, s.Busy())

	_, err = s.Apply(ctx, keymap.Delete)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.SetText(ctx, "x", ast.FieldName, "w")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.BeginSync()
	assert.ErrorIs(t, err, ErrBusy)

	_, err = s.Apply(ctx, keymap.FocusNext)
	assert.NoError(t, err, "navigation stays available")

	tree, err := client.Edit(ctx, s.Path(), ticket.Payload)
	require.NoError(t, err)
	require.NoError(t, s.Complete(ticket, tree, nil))
	assert.False(t, s.Busy())
}

func TestStaleResponseDiscarded(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)

	old, err := s.BeginSync()
	require.NoError(t, err)
	s.Cancel()
	latest, err := s.BeginSync()
	require.NoError(t, err)

	replacement := &ast.SourceFile{ID: "other"}
	assert.ErrorIs(t, s.Complete(old, replacement, nil), ErrStaleResponse)
	assert.Equal(t, "file", s.Root().ID)
	assert.True(t, s.Busy(), "latest request still outstanding")

	require.NoError(t, s.Complete(latest, replacement, nil))
	assert.Equal(t, "other", s.Root().ID)
	assert.ErrorIs(t, s.Complete(latest, replacement, nil), ErrStaleResponse)
}

func TestFailedRoundTripLeavesTree(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File, failure: errors.New("boom")}
	s := open(t, client, nil)
	ctx := context.Background()

	_, err := s.Apply(ctx, keymap.Delete)
	require.NoError(t, err)
	before := s.Fingerprint()

	err = s.Sync(ctx)
	require.Error(t, err)
	assert.Equal(t, before, s.Fingerprint())
	assert.True(t, s.Dirty(), "edit is still pending")
	assert.False(t, s.Busy())

	ticket, err := s.BeginSync()
	require.NoError(t, err)
	bad := &ast.SourceFile{ID: "f", Declarations: []ast.Decl{&ast.Comment{ID: "f"}}}
	assert.ErrorIs(t, s.Complete(ticket, bad, nil), ast.ErrDuplicateID)
	assert.Equal(t, before, s.Fingerprint())

	ticket, err = s.BeginSync()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Complete(ticket, nil, nil), service.ErrServiceFailure)
}

func TestSyncSendsChangedSubtree(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)
	ctx := context.Background()

	_, err := s.SetText(ctx, "foo", ast.FieldName, "bar")
	require.NoError(t, err)
	ticket, err := s.BeginSync()
	require.NoError(t, err)
	assert.Equal(t, "foo", ticket.Payload.NodeID)
	assert.Equal(t, service.EditKindNode, ticket.Payload.Kind)
	s.Cancel()

	_, err = s.SetText(ctx, "x", ast.FieldName, "w")
	require.NoError(t, err)
	ticket, err = s.BeginSync()
	require.NoError(t, err)
	assert.Equal(t, "file", ticket.Payload.NodeID, "unrelated edits widen to the root")
	s.Cancel()
}

func TestSyncIdenticalTreeKeepsIndex(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)
	ctx := context.Background()

	_, err := s.Apply(ctx, keymap.InsertSiblingAfter)
	require.NoError(t, err)
	root := s.Root()

	require.NoError(t, s.Sync(ctx))
	assert.Same(t, root, s.Root(), "identical reply is not re-indexed")
	assert.False(t, s.Dirty())
	req, ok := s.Focus().Pending()
	require.True(t, ok)
	assert.True(t, s.Index().Contains(req.NodeID))
}

func TestSyncKeepsFieldFocus(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)
	ctx := context.Background()

	out, err := s.SetText(ctx, "y", ast.FieldName, "total")
	require.NoError(t, err)
	require.True(t, out.Applied)
	require.NoError(t, s.Sync(ctx))
	req, ok := s.Focus().Pending()
	require.True(t, ok)
	assert.Equal(t, focus.Field("y", ast.FieldName), req)

	s.Focus().Consume()
	require.NoError(t, s.Sync(ctx))
	req, ok = s.Focus().Pending()
	require.True(t, ok)
	assert.Equal(t, focus.Handle("y"), req, "a consumed selection comes back as its handle")
}

func TestYankPaste(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)
	ctx := context.Background()

	_, err := s.Apply(ctx, keymap.Yank)
	require.NoError(t, err)
	out, err := s.Apply(ctx, keymap.Paste)
	require.NoError(t, err)
	require.True(t, out.Applied)

	decls := s.Root().Declarations
	require.Len(t, decls, 5)
	copied, ok := decls[1].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, "x", copied.Name)
	assert.NotEqual(t, "x", copied.ID)
	require.NoError(t, s.Index().Check())
}

func TestYankSkipsMalformedNode(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File}
	s := open(t, client, nil)
	ctx := context.Background()

	foo, ok := s.Index().Node("foo")
	require.True(t, ok)
	foo.(*ast.FunctionDefinition).Body = nil
	s.Focus().Request(focus.Handle("foo"))

	_, err := s.Apply(ctx, keymap.Yank)
	require.NoError(t, err)
	assert.Nil(t, s.clipboard)
	out, err := s.Apply(ctx, keymap.Paste)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Len(t, s.Root().Declarations, 4)
}

func TestNotices(t *testing.T) {
	client := &echoClient{doc: asttest.Program().File, notices: []string{"saved"}}
	s := open(t, client, nil)
	assert.Equal(t, []string{"saved"}, s.Notices())
	assert.Empty(t, s.Notices())
}
