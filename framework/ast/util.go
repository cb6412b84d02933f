package ast

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnknownKind is returned when a decoded node names no known variant.
	ErrUnknownKind = errors.New("unknown node kind")
	// ErrSlotType is returned when a decoded child does not fit its slot.
	ErrSlotType = errors.New("node does not fit slot")
	// ErrDuplicateID is returned when two nodes of one tree share an id.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrMissingID is returned when a node has an empty id.
	ErrMissingID = errors.New("node id missing")
)

// NewID returns a fresh globally unique node id.
func NewID() string {
	return uuid.NewString()
}

// NewUnknown builds a placeholder with a fresh id.
func NewUnknown(text string) *Unknown {
	return &Unknown{ID: NewID(), Text: text}
}

// Walk visits n and its descendants depth-first in declaration order. The
// walk stops descending below a node when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c.Node, fn)
	}
}

// Validate checks that every node of the tree rooted at n carries a
// non-empty id that no other node shares.
func Validate(n Node) error {
	seen := make(map[string]struct{})
	var err error
	Walk(n, func(node Node) bool {
		if err != nil {
			return false
		}
		id := node.NodeID()
		if id == "" {
			err = fmt.Errorf("%w: %s", ErrMissingID, node.Kind())
			return false
		}
		if _, dup := seen[id]; dup {
			err = fmt.Errorf("%w: %s", ErrDuplicateID, id)
			return false
		}
		seen[id] = struct{}{}
		return true
	})
	return err
}

// Clone deep-copies n, assigning a fresh id to every copied node. References
// to nodes inside the copied subtree are rewritten to the copies. A subtree
// with an empty required slot cannot be copied.
func Clone(n Node) (Node, error) {
	if n == nil {
		return nil, nil
	}
	w := toWire(n)
	ids := make(map[string]string)
	reassign(w, ids)
	retarget(w, ids)
	out, err := fromWire(w)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", n.Kind(), err)
	}
	return out, nil
}

func reassign(w *wireNode, ids map[string]string) {
	if w == nil {
		return
	}
	fresh := NewID()
	ids[w.ID] = fresh
	w.ID = fresh
	for _, l := range [][]*wireNode{w.Declarations, w.Parameters, w.Statements, w.Arguments} {
		for _, c := range l {
			reassign(c, ids)
		}
	}
	for _, c := range []*wireNode{w.Body, w.Condition, w.Else, w.Value, w.Left, w.Right} {
		reassign(c, ids)
	}
}

func retarget(w *wireNode, ids map[string]string) {
	if w == nil {
		return
	}
	if fresh, ok := ids[w.TargetID]; ok && w.TargetID != "" {
		w.TargetID = fresh
	}
	for _, l := range [][]*wireNode{w.Declarations, w.Parameters, w.Statements, w.Arguments} {
		for _, c := range l {
			retarget(c, ids)
		}
	}
	for _, c := range []*wireNode{w.Body, w.Condition, w.Else, w.Value, w.Left, w.Right} {
		retarget(c, ids)
	}
}
