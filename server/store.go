package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.lsp.dev/uri"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/service"
)

// DocumentExt is the suffix of documents stored as serialized trees.
const DocumentExt = ".ast.json"

var (
	// ErrOutsideRoot is returned for documents outside the served directory.
	ErrOutsideRoot = errors.New("document outside workspace root")
	// ErrNodeNotFound is returned when an edit names a node the document lacks.
	ErrNodeNotFound = errors.New("node not found")
)

// Store keeps documents in memory and persists every accepted edit.
type Store struct {
	root string
	mu   sync.Mutex
	docs map[string]*ast.SourceFile
}

// NewStore serves documents below root.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs, docs: make(map[string]*ast.SourceFile)}, nil
}

// Root returns the absolute directory the store serves.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) resolve(u uri.URI) (string, error) {
	path := filepath.Clean(u.Filename())
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return path, nil
}

// Open returns the document at u, loading it from disk on first use. A
// missing file yields an empty document that is written on the first edit.
func (s *Store) Open(u uri.URI) (*ast.SourceFile, error) {
	path, err := s.resolve(u)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(path)
}

func (s *Store) load(path string) (*ast.SourceFile, error) {
	if doc, ok := s.docs[path]; ok {
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		rel, _ := filepath.Rel(s.root, path)
		doc := &ast.SourceFile{ID: ast.NewID(), Path: strings.TrimSuffix(rel, DocumentExt)}
		s.docs[path] = doc
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := ast.UnmarshalFile(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := ast.Validate(doc); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s.docs[path] = doc
	return doc, nil
}

// Apply replaces the node named by the payload and persists the result. The
// stored document is untouched when the edit is rejected.
func (s *Store) Apply(u uri.URI, payload service.EditPayload) (*ast.SourceFile, error) {
	if payload.Kind != service.EditKindNode {
		return nil, fmt.Errorf("unsupported edit kind %q", payload.Kind)
	}
	path, err := s.resolve(u)
	if err != nil {
		return nil, err
	}
	node, err := ast.Unmarshal(payload.Node)
	if err != nil {
		return nil, err
	}
	if node.NodeID() != payload.NodeID {
		return nil, fmt.Errorf("edit names %s but carries %s", payload.NodeID, node.NodeID())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.load(path)
	if err != nil {
		return nil, err
	}
	working, err := copyDocument(current)
	if err != nil {
		return nil, err
	}
	if working, err = replace(working, node); err != nil {
		return nil, err
	}
	if err := ast.Validate(working); err != nil {
		return nil, err
	}
	if err := write(path, working); err != nil {
		return nil, err
	}
	s.docs[path] = working
	return working, nil
}

func replace(doc *ast.SourceFile, node ast.Node) (*ast.SourceFile, error) {
	if node.NodeID() == doc.ID {
		file, ok := node.(*ast.SourceFile)
		if !ok {
			return nil, fmt.Errorf("%w: root replaced by %s", ast.ErrSlotType, node.Kind())
		}
		return file, nil
	}
	ix := index.Build(doc)
	parent, info, ok := ix.ParentNode(node.NodeID())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, node.NodeID())
	}
	if !ast.Fits(parent, info.Field, node) {
		return nil, fmt.Errorf("%w: %s in %s.%s", ast.ErrSlotType, node.Kind(), parent.Kind(), info.Field)
	}
	if ast.Slot(parent, info.Field) == ast.SlotList {
		ast.RemoveAt(parent, info.Field, info.Position)
		ast.InsertAt(parent, info.Field, info.Position, node)
	} else {
		ast.Set(parent, info.Field, node)
	}
	return doc, nil
}

func copyDocument(doc *ast.SourceFile) (*ast.SourceFile, error) {
	data, err := ast.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return ast.UnmarshalFile(data)
}

func write(path string, doc *ast.SourceFile) error {
	data, err := ast.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
