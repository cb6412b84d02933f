package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/lexcodex/structedit/framework/ast"
)

// Options configure a JSON-RPC client.
type Options struct {
	// RootDir anchors relative document paths. Defaults to ".".
	RootDir string
	// ClientName is reported during the initialize handshake.
	ClientName string
	Logger     *log.Logger
}

// RPCClient implements Client over a JSON-RPC 2.0 connection.
type RPCClient struct {
	root    string
	conn    *jsonrpc2.Conn
	logger  *log.Logger
	onClose func()

	mu      sync.Mutex
	notices []protocol.ShowMessageParams
	server  *protocol.ServerInfo
}

// NewConnClient speaks to a language service over rwc and performs the
// initialize handshake.
func NewConnClient(ctx context.Context, rwc io.ReadWriteCloser, opts Options) (*RPCClient, error) {
	root := opts.RootDir
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &RPCClient{root: absRoot, logger: logger}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(c.handle))
	name := opts.ClientName
	if name == "" {
		name = "structedit"
	}
	if err := c.initialize(ctx, name); err != nil {
		_ = c.conn.Close()
		return nil, fmt.Errorf("%w: initialize: %w", ErrServiceFailure, err)
	}
	return c, nil
}

func (c *RPCClient) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	if !req.Notif {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
	}
	switch req.Method {
	case MethodShowMessage:
		if req.Params == nil {
			return nil, nil
		}
		var params protocol.ShowMessageParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.notices = append(c.notices, params)
		c.mu.Unlock()
		c.logger.Printf("service: %s", params.Message)
	}
	return nil, nil
}

func (c *RPCClient) initialize(ctx context.Context, name string) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(uri.File(c.root)),
		ClientInfo: &protocol.ClientInfo{
			Name:    name,
			Version: "0.1",
		},
	}
	var result protocol.InitializeResult
	if err := c.conn.Call(ctx, MethodInitialize, params, &result); err != nil {
		return err
	}
	c.mu.Lock()
	c.server = result.ServerInfo
	c.mu.Unlock()
	return c.conn.Notify(ctx, MethodInitialized, &protocol.InitializedParams{})
}

// ServerName returns the name the service reported during initialize.
func (c *RPCClient) ServerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server == nil {
		return ""
	}
	return c.server.Name
}

// Notices drains the messages the service asked to display.
func (c *RPCClient) Notices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.notices))
	for _, n := range c.notices {
		out = append(out, n.Message)
	}
	c.notices = nil
	return out
}

func (c *RPCClient) documentURI(path string) uri.URI {
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.root, path)
	}
	return uri.File(path)
}

// OpenFile asks the service for the tree of path.
func (c *RPCClient) OpenFile(ctx context.Context, path string) (*ast.SourceFile, error) {
	var result DocumentResult
	params := OpenFileParams{URI: c.documentURI(path)}
	if err := c.conn.Call(ctx, MethodOpenFile, params, &result); err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrServiceFailure, path, err)
	}
	return decodeDocument(path, result)
}

// Edit sends payload and returns the service's replacement tree.
func (c *RPCClient) Edit(ctx context.Context, path string, payload EditPayload) (*ast.SourceFile, error) {
	var result DocumentResult
	params := EditParams{URI: c.documentURI(path), Edit: payload}
	if err := c.conn.Call(ctx, MethodEdit, params, &result); err != nil {
		return nil, fmt.Errorf("%w: edit %s: %w", ErrServiceFailure, path, err)
	}
	return decodeDocument(path, result)
}

func decodeDocument(path string, result DocumentResult) (*ast.SourceFile, error) {
	if len(result.Document) == 0 || string(result.Document) == "null" {
		return nil, fmt.Errorf("%w: %s: empty document", ErrServiceFailure, path)
	}
	file, err := ast.UnmarshalFile(result.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrServiceFailure, path, err)
	}
	return file, nil
}

// Close ends the connection and, for process clients, the process.
func (c *RPCClient) Close() error {
	if c == nil {
		return nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.onClose != nil {
		c.onClose()
	}
	return nil
}
