// Package index maintains the id→node and id→parent maps derived from a
// source file. The maps are a cache of the tree: every mutation of the tree
// must be followed by Sync (for the mutated parent) and Forget (for detached
// subtrees) before the maps are read again.
package index

import (
	"fmt"
	"sort"

	"github.com/lexcodex/structedit/framework/ast"
)

// ParentInfo records which slot of which parent holds a node. Position is the
// index within a list slot and 0 for single-value slots.
type ParentInfo struct {
	ParentID string
	Field    ast.Field
	Position int
}

// Index owns a source file together with its NodeMap and ParentMap.
type Index struct {
	root    *ast.SourceFile
	nodes   map[string]ast.Node
	parents map[string]ParentInfo
}

// Build indexes every node reachable from root.
func Build(root *ast.SourceFile) *Index {
	ix := &Index{
		root:    root,
		nodes:   make(map[string]ast.Node),
		parents: make(map[string]ParentInfo),
	}
	if root != nil {
		ix.visit(root)
	}
	return ix
}

func (ix *Index) visit(n ast.Node) {
	if _, seen := ix.nodes[n.NodeID()]; !seen {
		ix.nodes[n.NodeID()] = n
	}
	for _, c := range ast.Children(n) {
		ix.parents[c.Node.NodeID()] = ParentInfo{
			ParentID: n.NodeID(),
			Field:    c.Field,
			Position: c.Position,
		}
		ix.visit(c.Node)
	}
}

// Root returns the indexed source file.
func (ix *Index) Root() *ast.SourceFile {
	return ix.root
}

// Node looks up a node by id.
func (ix *Index) Node(id string) (ast.Node, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Parent looks up where a node is held. The root has no entry.
func (ix *Index) Parent(id string) (ParentInfo, bool) {
	info, ok := ix.parents[id]
	return info, ok
}

// ParentNode returns the node holding id together with its ParentInfo.
func (ix *Index) ParentNode(id string) (ast.Node, ParentInfo, bool) {
	info, ok := ix.parents[id]
	if !ok {
		return nil, ParentInfo{}, false
	}
	parent, ok := ix.nodes[info.ParentID]
	if !ok {
		return nil, ParentInfo{}, false
	}
	return parent, info, true
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.nodes)
}

// IDs returns every indexed id in sorted order.
func (ix *Index) IDs() []string {
	ids := make([]string, 0, len(ix.nodes))
	for id := range ix.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Contains reports whether id is indexed.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.nodes[id]
	return ok
}

// Sync re-records the ParentInfo of every direct child of parent and indexes
// any subtree that is not yet known. Call it after mutating parent's slots.
func (ix *Index) Sync(parent ast.Node) {
	if parent == nil {
		return
	}
	for _, c := range ast.Children(parent) {
		id := c.Node.NodeID()
		ix.parents[id] = ParentInfo{ParentID: parent.NodeID(), Field: c.Field, Position: c.Position}
		if known, ok := ix.nodes[id]; !ok || known != c.Node {
			ix.nodes[id] = c.Node
			ix.Sync(c.Node)
		}
	}
}

// Forget drops a detached subtree from both maps.
func (ix *Index) Forget(n ast.Node) {
	ast.Walk(n, func(node ast.Node) bool {
		delete(ix.nodes, node.NodeID())
		delete(ix.parents, node.NodeID())
		return true
	})
}

// Reset replaces the indexed tree wholesale.
func (ix *Index) Reset(root *ast.SourceFile) {
	*ix = *Build(root)
}

// Check verifies the maps against the tree: every reachable node is indexed
// exactly once, every non-root node has exactly one ParentInfo matching its
// slot, list positions are contiguous, and nothing unreachable is indexed.
func (ix *Index) Check() error {
	if ix.root == nil {
		if len(ix.nodes) != 0 || len(ix.parents) != 0 {
			return fmt.Errorf("empty tree has %d indexed nodes", len(ix.nodes))
		}
		return nil
	}
	reachable := 0
	var err error
	ast.Walk(ix.root, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		reachable++
		if got, ok := ix.nodes[n.NodeID()]; !ok || got != n {
			err = fmt.Errorf("node %s (%s) not indexed", n.NodeID(), n.Kind())
			return false
		}
		positions := make(map[ast.Field][]int)
		for _, c := range ast.Children(n) {
			info, ok := ix.parents[c.Node.NodeID()]
			want := ParentInfo{ParentID: n.NodeID(), Field: c.Field, Position: c.Position}
			if !ok || info != want {
				err = fmt.Errorf("parent of %s is %+v, want %+v", c.Node.NodeID(), info, want)
				return false
			}
			if ast.Slot(n, c.Field) == ast.SlotList {
				positions[c.Field] = append(positions[c.Field], info.Position)
			}
		}
		for field, list := range positions {
			for i, p := range list {
				if p != i {
					err = fmt.Errorf("%s.%s positions %v are not contiguous", n.NodeID(), field, list)
					return false
				}
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if _, ok := ix.parents[ix.root.ID]; ok {
		return fmt.Errorf("root %s has a parent entry", ix.root.ID)
	}
	if reachable != len(ix.nodes) {
		return fmt.Errorf("%d nodes indexed, %d reachable", len(ix.nodes), reachable)
	}
	if reachable-1 != len(ix.parents) {
		return fmt.Errorf("%d parent entries, %d non-root nodes", len(ix.parents), reachable-1)
	}
	return nil
}
