// Package server is a reference language service. It stores documents as
// serialized trees and answers the editor's openFile and edit requests over
// JSON-RPC.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/service"
)

// Server answers editor requests for the documents in one Store.
type Server struct {
	Store  *Store
	Name   string
	logger *log.Logger
}

// New builds a server for the documents below root.
func New(root string, logger *log.Logger) (*Server, error) {
	store, err := NewStore(root)
	if err != nil {
		return nil, err
	}
	return NewWithStore(store, logger), nil
}

// NewWithStore builds a server over an existing store, so that other
// front ends such as the HTTP API observe the same documents.
func NewWithStore(store *Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Store: store, Name: "structedit-service", logger: logger}
}

// Handler returns the JSON-RPC handler for one connection.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(s.handle)
}

// ServeStream serves one connection until the peer hangs up or ctx ends.
func (s *Server) ServeStream(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, s.Handler())
	select {
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case service.MethodInitialize:
		var params protocol.InitializeParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if params.ClientInfo != nil {
			s.logger.Printf("initialize from %s", params.ClientInfo.Name)
		}
		return &protocol.InitializeResult{
			ServerInfo: &protocol.ServerInfo{Name: s.Name, Version: "0.1"},
		}, nil
	case service.MethodInitialized, service.MethodShutdown:
		return nil, nil
	case service.MethodOpenFile:
		var params service.OpenFileParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		doc, err := s.Store.Open(params.URI)
		if err != nil {
			return nil, requestFailed(err)
		}
		return documentResult(doc)
	case service.MethodEdit:
		var params service.EditParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		doc, err := s.Store.Apply(params.URI, params.Edit)
		if err != nil {
			s.logger.Printf("edit %s rejected: %v", params.URI, err)
			return nil, requestFailed(err)
		}
		s.notify(ctx, conn, protocol.MessageTypeInfo, "saved "+filepath.Base(params.URI.Filename()))
		return documentResult(doc)
	}
	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
}

func (s *Server) notify(ctx context.Context, conn *jsonrpc2.Conn, typ protocol.MessageType, message string) {
	params := &protocol.ShowMessageParams{Type: typ, Message: message}
	if err := conn.Notify(ctx, service.MethodShowMessage, params); err != nil {
		s.logger.Printf("notify: %v", err)
	}
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func requestFailed(err error) error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
}

func documentResult(doc *ast.SourceFile) (*service.DocumentResult, error) {
	data, err := ast.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return &service.DocumentResult{Document: data}, nil
}
