// Package service talks to the external language service that owns the
// textual form of a document. The editor sends structural edits and receives
// the whole authoritative tree back on every round trip.
package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.lsp.dev/uri"

	"github.com/lexcodex/structedit/framework/ast"
)

// JSON-RPC method names served by the language service.
const (
	MethodOpenFile = "structedit/openFile"
	MethodEdit     = "structedit/edit"

	MethodInitialize  = "initialize"
	MethodInitialized = "initialized"
	MethodShowMessage = "window/showMessage"
	MethodShutdown    = "shutdown"
)

// EditKindNode is the only edit payload kind: a replacement subtree.
const EditKindNode = "nodeEdit"

// ErrServiceFailure wraps transport and decode failures of a round trip.
var ErrServiceFailure = errors.New("language service failure")

// Client is the boundary the editing session depends on.
type Client interface {
	OpenFile(ctx context.Context, path string) (*ast.SourceFile, error)
	Edit(ctx context.Context, path string, payload EditPayload) (*ast.SourceFile, error)
	Close() error
}

// EditPayload carries one serialized subtree. The service replaces the node
// with the same id in its copy of the document.
type EditPayload struct {
	Kind   string          `json:"kind"`
	NodeID string          `json:"nodeId"`
	Node   json.RawMessage `json:"node"`
}

// NodeEdit serializes n as an edit payload.
func NodeEdit(n ast.Node) (EditPayload, error) {
	data, err := ast.Marshal(n)
	if err != nil {
		return EditPayload{}, err
	}
	return EditPayload{Kind: EditKindNode, NodeID: n.NodeID(), Node: data}, nil
}

// OpenFileParams are the parameters of MethodOpenFile.
type OpenFileParams struct {
	URI uri.URI `json:"uri"`
}

// EditParams are the parameters of MethodEdit.
type EditParams struct {
	URI  uri.URI     `json:"uri"`
	Edit EditPayload `json:"edit"`
}

// DocumentResult is the reply to both methods.
type DocumentResult struct {
	Document json.RawMessage `json:"document"`
}
