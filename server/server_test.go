package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/service"
)

func connect(t *testing.T, dir string) (*service.RPCClient, func()) {
	t.Helper()
	srv, err := New(dir, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	serverSide, clientSide := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.ServeStream(ctx, serverSide)
	}()

	client, err := service.NewConnClient(ctx, clientSide, service.Options{
		RootDir: dir,
		Logger:  log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	return client, func() {
		_ = client.Close()
		cancel()
		<-done
		_ = serverSide.Close()
	}
}

func TestRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	writeFixture(t, dir, "main.ast.json")
	client, stop := connect(t, dir)
	defer stop()

	assert.Equal(t, "structedit-service", client.ServerName())

	ctx := context.Background()
	doc, err := client.OpenFile(ctx, "main.ast.json")
	require.NoError(t, err)
	require.Len(t, doc.Declarations, 4)

	payload, err := service.NodeEdit(&ast.NumberLiteral{ID: "ref-a", Value: "1"})
	require.NoError(t, err)
	updated, err := client.Edit(ctx, "main.ast.json", payload)
	require.NoError(t, err)
	ret := updated.Declarations[2].(*ast.FunctionDefinition).Body.(*ast.CompoundStatement).Statements[1].(*ast.ReturnStatement)
	assert.Equal(t, &ast.NumberLiteral{ID: "ref-a", Value: "1"}, ret.Value)

	assert.Contains(t, client.Notices(), "saved main.ast.json")
	assert.Empty(t, client.Notices(), "notices drain")
}

func TestRoundTripFailureIsServiceFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	writeFixture(t, dir, "main.ast.json")
	client, stop := connect(t, dir)
	defer stop()

	payload, err := service.NodeEdit(&ast.Reference{ID: "ghost"})
	require.NoError(t, err)
	_, err = client.Edit(context.Background(), "main.ast.json", payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrServiceFailure)
	var rpcErr *jsonrpc2.Error
	assert.True(t, errors.As(err, &rpcErr))

	_, err = client.OpenFile(context.Background(), "../escape.ast.json")
	assert.ErrorIs(t, err, service.ErrServiceFailure)
}
