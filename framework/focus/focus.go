// Package focus tracks the selected node and the pending focus request that
// the presentation layer consumes after each edit.
package focus

import (
	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/index"
)

// Request asks the presentation layer to move input focus. An empty Field
// targets the node's structural handle; a scalar field targets that editable
// field.
type Request struct {
	NodeID string
	Field  ast.Field
}

// IsZero reports whether the request names no node.
func (r Request) IsZero() bool {
	return r.NodeID == ""
}

// Handle requests focus on a node's structural handle.
func Handle(id string) Request {
	return Request{NodeID: id}
}

// Field requests focus on an editable field of a node.
func Field(id string, field ast.Field) Request {
	return Request{NodeID: id, Field: field}
}

// State holds the current selection and at most one outstanding request.
type State struct {
	selected Request
	pending  *Request
}

// Select marks a node (and optionally one of its fields) as selected.
func (s *State) Select(r Request) {
	s.selected = r
}

// Selected returns the current selection.
func (s *State) Selected() Request {
	return s.selected
}

// Request records a focus request, replacing any outstanding one.
func (s *State) Request(r Request) {
	if r.IsZero() {
		return
	}
	req := r
	s.pending = &req
}

// Pending returns the outstanding request without clearing it.
func (s *State) Pending() (Request, bool) {
	if s.pending == nil {
		return Request{}, false
	}
	return *s.pending, true
}

// Consume returns the outstanding request, clears it, and makes it the
// selection.
func (s *State) Consume() (Request, bool) {
	if s.pending == nil {
		return Request{}, false
	}
	req := *s.pending
	s.pending = nil
	s.selected = req
	return req, true
}

// Clear drops the selection and any outstanding request.
func (s *State) Clear() {
	s.selected = Request{}
	s.pending = nil
}

// Navigator moves through the tree using the parent index.
type Navigator struct {
	Index *index.Index
}

// Parent returns the id of the node holding id.
func (n Navigator) Parent(id string) (string, bool) {
	info, ok := n.Index.Parent(id)
	if !ok {
		return "", false
	}
	return info.ParentID, true
}

// NextSibling returns the child that follows id in its parent's traversal
// order, crossing from one field to the next.
func (n Navigator) NextSibling(id string) (string, bool) {
	return n.sibling(id, 1)
}

// PrevSibling returns the child that precedes id in its parent's traversal
// order.
func (n Navigator) PrevSibling(id string) (string, bool) {
	return n.sibling(id, -1)
}

func (n Navigator) sibling(id string, delta int) (string, bool) {
	parent, _, ok := n.Index.ParentNode(id)
	if !ok {
		return "", false
	}
	children := ast.Children(parent)
	for i, c := range children {
		if c.Node.NodeID() != id {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(children) {
			return "", false
		}
		return children[j].Node.NodeID(), true
	}
	return "", false
}

// FirstChild returns the first child of id in traversal order.
func (n Navigator) FirstChild(id string) (string, bool) {
	node, ok := n.Index.Node(id)
	if !ok {
		return "", false
	}
	children := ast.Children(node)
	if len(children) == 0 {
		return "", false
	}
	return children[0].Node.NodeID(), true
}
