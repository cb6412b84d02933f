package session

import (
	"context"
	"fmt"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/service"
)

// Ticket identifies one round trip. Only the newest ticket may complete.
type Ticket struct {
	Seq     uint64
	Payload service.EditPayload
}

// BeginSync serializes the pending edit and marks a round trip in flight.
// Without local changes the whole document is sent.
func (s *Session) BeginSync() (Ticket, error) {
	if err := s.ready(); err != nil {
		return Ticket{}, err
	}
	node, ok := s.ix.Node(s.dirty)
	if !ok {
		node = s.ix.Root()
	}
	payload, err := service.NodeEdit(node)
	if err != nil {
		return Ticket{}, err
	}
	s.seq++
	s.inflight = true
	return Ticket{Seq: s.seq, Payload: payload}, nil
}

// Cancel abandons the round trip in flight; its reply will be stale.
func (s *Session) Cancel() {
	if s.inflight {
		s.seq++
		s.inflight = false
	}
}

// Complete accepts the service's reply to ticket. A failed or invalid reply
// leaves the tree untouched and is returned for display. An identical tree
// skips re-indexing.
func (s *Session) Complete(ticket Ticket, tree *ast.SourceFile, err error) error {
	if ticket.Seq != s.seq || !s.inflight {
		s.logger.Printf("session: discarding reply %d, latest is %d", ticket.Seq, s.seq)
		return ErrStaleResponse
	}
	s.inflight = false
	if err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	if tree == nil {
		return fmt.Errorf("sync %s: %w: empty reply", s.path, service.ErrServiceFailure)
	}
	if err := ast.Validate(tree); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	fp, err := fingerprint(tree)
	if err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	s.dirty = ""
	if fp == s.Fingerprint() {
		s.logger.Printf("session: %s unchanged by service", s.path)
	} else {
		s.ix.Reset(tree)
	}
	s.restoreFocus()
	return nil
}

// restoreFocus re-issues the outstanding request, or the selection's handle,
// when its node survived the reply.
func (s *Session) restoreFocus() {
	want, ok := s.focus.Pending()
	if !ok {
		want = focus.Handle(s.focus.Selected().NodeID)
	}
	if want.NodeID != "" && s.ix.Contains(want.NodeID) {
		s.focus.Request(want)
		return
	}
	s.focus.Request(s.defaultFocus())
}

// Send delivers ticket to the language service. It reads no mutable session
// state, so it may run on another goroutine while Complete stays on the
// owner's.
func (s *Session) Send(ctx context.Context, ticket Ticket) (*ast.SourceFile, error) {
	if s.client == nil {
		return nil, fmt.Errorf("sync %s: no language service", s.path)
	}
	return s.client.Edit(ctx, s.path, ticket.Payload)
}

// Sync performs a full round trip.
func (s *Session) Sync(ctx context.Context) error {
	ticket, err := s.BeginSync()
	if err != nil {
		return err
	}
	tree, err := s.Send(ctx, ticket)
	return s.Complete(ticket, tree, err)
}
