// Package session owns one open document: its tree, index, edit engine, and
// focus state, plus the round trip to the language service that turns local
// edits into the authoritative tree.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/edit"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/persistence"
	"github.com/lexcodex/structedit/service"
)

var (
	// ErrBusy is returned for edits attempted while a round trip is in flight.
	ErrBusy = errors.New("round trip in flight")
	// ErrStaleResponse is returned when a reply belongs to a superseded request.
	ErrStaleResponse = errors.New("stale response")
	// ErrNotOpen is returned before Open succeeds.
	ErrNotOpen = errors.New("document not open")
)

// Options configure a Session.
type Options struct {
	Path    string
	Client  service.Client
	Journal persistence.Journal
	Logger  *log.Logger
}

// Session coordinates one document.
type Session struct {
	path    string
	client  service.Client
	journal persistence.Journal
	logger  *log.Logger

	ix     *index.Index
	engine *edit.Engine
	focus  focus.State

	dirty     string
	clipboard ast.Node

	seq      uint64
	inflight bool
}

// New builds a session; call Open before anything else.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ix := index.Build(nil)
	return &Session{
		path:    opts.Path,
		client:  opts.Client,
		journal: opts.Journal,
		logger:  logger,
		ix:      ix,
		engine:  edit.New(ix, logger),
	}
}

// Path returns the document path.
func (s *Session) Path() string { return s.path }

// Index returns the live index. Callers must not mutate the tree directly.
func (s *Session) Index() *index.Index { return s.ix }

// Root returns the current tree.
func (s *Session) Root() *ast.SourceFile { return s.ix.Root() }

// Focus returns the focus state consumed by the presentation layer.
func (s *Session) Focus() *focus.State { return &s.focus }

// Busy reports whether a round trip is in flight.
func (s *Session) Busy() bool { return s.inflight }

// Dirty reports whether local edits have not been sent yet.
func (s *Session) Dirty() bool { return s.dirty != "" }

// Fingerprint returns the hash of the canonical encoding of the current tree,
// or zero before Open.
func (s *Session) Fingerprint() uint64 {
	root := s.ix.Root()
	if root == nil {
		return 0
	}
	fp, err := fingerprint(root)
	if err != nil {
		s.logger.Printf("session: fingerprint: %v", err)
		return 0
	}
	return fp
}

// Notices drains messages the language service asked to display.
func (s *Session) Notices() []string {
	if n, ok := s.client.(interface{ Notices() []string }); ok {
		return n.Notices()
	}
	return nil
}

// Open loads the document from the language service and focuses its first
// declaration.
func (s *Session) Open(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("open %s: no language service", s.path)
	}
	tree, err := s.client.OpenFile(ctx, s.path)
	if err != nil {
		return err
	}
	if err := ast.Validate(tree); err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	s.ix.Reset(tree)
	s.dirty = ""
	s.focus.Clear()
	s.focus.Request(s.defaultFocus())
	return nil
}

func (s *Session) defaultFocus() focus.Request {
	root := s.ix.Root()
	if root == nil {
		return focus.Request{}
	}
	if len(root.Declarations) > 0 {
		return focus.Handle(root.Declarations[0].NodeID())
	}
	return focus.Handle(root.ID)
}

// Current returns the node commands act on: the pending focus target if one
// is outstanding, else the selection.
func (s *Session) Current() string {
	if req, ok := s.focus.Pending(); ok {
		return req.NodeID
	}
	return s.focus.Selected().NodeID
}

func fingerprint(tree *ast.SourceFile) (uint64, error) {
	data, err := ast.Marshal(tree)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func (s *Session) record(ctx context.Context, command, nodeID string, out edit.Outcome) {
	if s.journal == nil {
		return
	}
	err := s.journal.Record(ctx, persistence.Entry{
		Document:    s.path,
		Command:     command,
		NodeID:      nodeID,
		FocusID:     out.Focus.NodeID,
		Applied:     out.Applied,
		Fingerprint: s.Fingerprint(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Printf("session: journal: %v", err)
	}
}

// markDirty widens the pending edit to cover changed. Two unrelated changes
// collapse to the whole document.
func (s *Session) markDirty(changed string) {
	switch {
	case changed == "":
	case s.dirty == "" || s.dirty == changed:
		s.dirty = changed
	default:
		s.dirty = s.ix.Root().ID
	}
}

// commit finishes an engine call: focus, dirty tracking, and journaling.
func (s *Session) commit(ctx context.Context, command, nodeID string, out edit.Outcome) edit.Outcome {
	if out.Applied {
		s.markDirty(out.Changed)
	}
	if !out.Focus.IsZero() {
		s.focus.Request(out.Focus)
	}
	s.record(ctx, command, nodeID, out)
	return out
}

func (s *Session) ready() error {
	if s.ix.Root() == nil {
		return ErrNotOpen
	}
	if s.inflight {
		return ErrBusy
	}
	return nil
}

// Apply runs one keymap command against the current node. Structural
// commands are rejected with ErrBusy while a round trip is in flight.
// Commands owned by the presentation layer return a zero Outcome.
func (s *Session) Apply(ctx context.Context, cmd keymap.Command) (edit.Outcome, error) {
	if s.ix.Root() == nil {
		return edit.Outcome{}, ErrNotOpen
	}
	id := s.Current()
	switch cmd {
	case keymap.FocusParent, keymap.FocusNext, keymap.FocusPrevious, keymap.FocusChild:
		return s.navigate(cmd, id), nil
	case keymap.Yank:
		return s.yank(id), nil
	}
	if !cmd.Structural() {
		return edit.Outcome{}, nil
	}
	if s.inflight {
		return edit.Outcome{}, ErrBusy
	}
	var out edit.Outcome
	switch cmd {
	case keymap.InsertSiblingAfter:
		out = s.engine.InsertSibling(id, edit.After)
	case keymap.InsertSiblingBefore:
		out = s.engine.InsertSibling(id, edit.Before)
	case keymap.Delete:
		out = s.engine.Delete(id)
	case keymap.MoveUp:
		out = s.engine.MoveUp(id)
	case keymap.MoveDown:
		out = s.engine.MoveDown(id)
	case keymap.MoveIntoNext:
		out = s.engine.MoveIntoSibling(id, edit.First)
	case keymap.MoveIntoPrevious:
		out = s.engine.MoveIntoSibling(id, edit.Last)
	case keymap.InsertFirstChild:
		out = s.engine.InsertChild(id, edit.First)
	case keymap.InsertLastChild:
		out = s.engine.InsertChild(id, edit.Last)
	case keymap.Paste:
		out = s.paste(id)
	}
	return s.commit(ctx, string(cmd), id, out), nil
}

func (s *Session) navigate(cmd keymap.Command, id string) edit.Outcome {
	nav := focus.Navigator{Index: s.ix}
	var (
		target string
		ok     bool
	)
	switch cmd {
	case keymap.FocusParent:
		target, ok = nav.Parent(id)
	case keymap.FocusNext:
		target, ok = nav.NextSibling(id)
	case keymap.FocusPrevious:
		target, ok = nav.PrevSibling(id)
	case keymap.FocusChild:
		target, ok = nav.FirstChild(id)
	}
	if !ok {
		return edit.Outcome{}
	}
	out := edit.Outcome{Focus: focus.Handle(target)}
	s.focus.Request(out.Focus)
	return out
}

func (s *Session) yank(id string) edit.Outcome {
	node, ok := s.ix.Node(id)
	if !ok || node == s.ix.Root() {
		return edit.Outcome{}
	}
	clone, err := ast.Clone(node)
	if err != nil {
		s.logger.Printf("session: yank %s skipped: %v", id, err)
		return edit.Outcome{}
	}
	s.clipboard = clone
	return edit.Outcome{}
}

// paste fills a placeholder with a copy of the clipboard, or inserts the copy
// after the current node when that node sits in a list.
func (s *Session) paste(id string) edit.Outcome {
	if s.clipboard == nil {
		return edit.Outcome{}
	}
	node, ok := s.ix.Node(id)
	if !ok {
		return edit.Outcome{}
	}
	clone, err := ast.Clone(s.clipboard)
	if err != nil {
		s.logger.Printf("session: paste %s skipped: %v", id, err)
		return edit.Outcome{}
	}
	if _, placeholder := node.(*ast.Unknown); placeholder {
		return s.engine.Replace(id, clone)
	}
	parent, info, ok := s.ix.ParentNode(id)
	if !ok || ast.Slot(parent, info.Field) != ast.SlotList || !ast.Fits(parent, info.Field, clone) {
		s.logger.Printf("session: paste %s skipped: no slot for %s", id, clone.Kind())
		return edit.Outcome{}
	}
	inserted := s.engine.InsertSibling(id, edit.After)
	if !inserted.Applied {
		return inserted
	}
	return s.engine.Replace(inserted.Focus.NodeID, clone)
}

// SetText edits a scalar field of a node.
func (s *Session) SetText(ctx context.Context, id string, field ast.Field, text string) (edit.Outcome, error) {
	if err := s.ready(); err != nil {
		return edit.Outcome{}, err
	}
	return s.commit(ctx, "set-text", id, s.engine.SetText(id, field, text)), nil
}

// Replace swaps a node for a freshly built one, typically an accepted
// completion.
func (s *Session) Replace(ctx context.Context, id string, node ast.Node) (edit.Outcome, error) {
	if err := s.ready(); err != nil {
		return edit.Outcome{}, err
	}
	return s.commit(ctx, "replace", id, s.engine.Replace(id, node)), nil
}

// Retarget points a reference-like node at another declaration.
func (s *Session) Retarget(ctx context.Context, id, targetID string) (edit.Outcome, error) {
	if err := s.ready(); err != nil {
		return edit.Outcome{}, err
	}
	return s.commit(ctx, "retarget", id, s.engine.Retarget(id, targetID)), nil
}
