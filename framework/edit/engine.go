// Package edit implements the structural edit commands. Each command mutates
// the tree owned by an index.Index, re-synchronizes the index before
// returning, and reports which node should receive focus next. Commands that
// have no valid destination are logged no-ops.
package edit

import (
	"log"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/framework/scope"
)

// Side selects where InsertSibling places the new node.
type Side int

const (
	Before Side = iota
	After
)

// End selects the first or last position of a list.
type End int

const (
	First End = iota
	Last
)

// Outcome describes the result of a command. Changed is the id of the
// smallest subtree containing every mutated slot; it is the node sent to the
// language service as a nodeEdit.
type Outcome struct {
	Applied bool
	Focus   focus.Request
	Changed string
}

// Engine applies commands to an indexed tree.
type Engine struct {
	ix     *index.Index
	logger *log.Logger
}

// New builds an engine over ix.
func New(ix *index.Index, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{ix: ix, logger: logger}
}

// Index returns the index the engine mutates.
func (e *Engine) Index() *index.Index {
	return e.ix
}

func (e *Engine) skip(op, id, reason string) Outcome {
	e.logger.Printf("edit: %s %s skipped: %s", op, id, reason)
	return Outcome{}
}

type location struct {
	node   ast.Node
	parent ast.Node
	info   index.ParentInfo
}

func (e *Engine) locate(id string) (location, bool) {
	node, ok := e.ix.Node(id)
	if !ok {
		return location{}, false
	}
	parent, info, ok := e.ix.ParentNode(id)
	if !ok {
		return location{node: node}, false
	}
	return location{node: node, parent: parent, info: info}, true
}

// InsertSibling splices a placeholder before or after the node identified by
// id. The node must occupy a list slot.
func (e *Engine) InsertSibling(id string, side Side) Outcome {
	loc, ok := e.locate(id)
	if !ok {
		return e.skip("insert-sibling", id, "no parent")
	}
	if ast.Slot(loc.parent, loc.info.Field) != ast.SlotList {
		return e.skip("insert-sibling", id, "not in a list")
	}
	pos := loc.info.Position
	if side == After {
		pos++
	}
	placeholder := ast.NewUnknown("")
	if !ast.InsertAt(loc.parent, loc.info.Field, pos, placeholder) {
		return e.skip("insert-sibling", id, "slot rejected placeholder")
	}
	e.ix.Sync(loc.parent)
	return Outcome{
		Applied: true,
		Focus:   focus.Field(placeholder.ID, ast.FieldText),
		Changed: loc.parent.NodeID(),
	}
}

// InsertChild adds a placeholder as the first or last element of the list
// field of the node identified by id.
func (e *Engine) InsertChild(id string, end End) Outcome {
	node, ok := e.ix.Node(id)
	if !ok {
		return e.skip("insert-child", id, "not indexed")
	}
	field, ok := ast.ArrayField(node)
	if !ok {
		return e.skip("insert-child", id, "no list field")
	}
	pos := 0
	if end == Last {
		pos = ast.ListLen(node, field)
	}
	placeholder := ast.NewUnknown("")
	if !ast.InsertAt(node, field, pos, placeholder) {
		return e.skip("insert-child", id, "slot rejected placeholder")
	}
	e.ix.Sync(node)
	return Outcome{
		Applied: true,
		Focus:   focus.Field(placeholder.ID, ast.FieldText),
		Changed: node.NodeID(),
	}
}

// Delete removes the node identified by id. A list element is removed and
// focus moves to the next sibling, else the previous one, else the parent. An
// optional slot is cleared and focus returns to the parent. A required slot
// receives a fresh placeholder, which takes focus.
func (e *Engine) Delete(id string) Outcome {
	loc, ok := e.locate(id)
	if !ok {
		return e.skip("delete", id, "no parent")
	}
	parent, field, pos := loc.parent, loc.info.Field, loc.info.Position
	switch ast.Slot(parent, field) {
	case ast.SlotList:
		if _, ok := ast.RemoveAt(parent, field, pos); !ok {
			return e.skip("delete", id, "position out of range")
		}
		e.ix.Forget(loc.node)
		e.ix.Sync(parent)
		target := parent.NodeID()
		if next := ast.ListAt(parent, field, pos); next != nil {
			target = next.NodeID()
		} else if prev := ast.ListAt(parent, field, pos-1); prev != nil {
			target = prev.NodeID()
		}
		return Outcome{Applied: true, Focus: focus.Handle(target), Changed: parent.NodeID()}
	case ast.SlotOptional:
		if !ast.Set(parent, field, nil) {
			return e.skip("delete", id, "slot could not be cleared")
		}
		e.ix.Forget(loc.node)
		e.ix.Sync(parent)
		return Outcome{Applied: true, Focus: focus.Handle(parent.NodeID()), Changed: parent.NodeID()}
	case ast.SlotRequired:
		placeholder := ast.NewUnknown("")
		if !ast.Set(parent, field, placeholder) {
			return e.skip("delete", id, "slot rejected placeholder")
		}
		e.ix.Forget(loc.node)
		e.ix.Sync(parent)
		return Outcome{
			Applied: true,
			Focus:   focus.Field(placeholder.ID, ast.FieldText),
			Changed: parent.NodeID(),
		}
	}
	return e.skip("delete", id, "unknown slot")
}

// Replace substitutes replacement into the slot held by the node identified
// by oldID. Every id in the replacement subtree must be new to the index.
func (e *Engine) Replace(oldID string, replacement ast.Node) Outcome {
	if replacement == nil {
		return e.skip("replace", oldID, "nil replacement")
	}
	if err := ast.Validate(replacement); err != nil {
		return e.skip("replace", oldID, err.Error())
	}
	clash := false
	ast.Walk(replacement, func(n ast.Node) bool {
		if e.ix.Contains(n.NodeID()) {
			clash = true
		}
		return !clash
	})
	if clash {
		return e.skip("replace", oldID, "replacement reuses indexed ids")
	}
	loc, ok := e.locate(oldID)
	if !ok {
		return e.skip("replace", oldID, "no parent")
	}
	parent, field, pos := loc.parent, loc.info.Field, loc.info.Position
	if !ast.Fits(parent, field, replacement) {
		return e.skip("replace", oldID, string(replacement.Kind())+" does not fit "+string(field))
	}
	if ast.Slot(parent, field) == ast.SlotList {
		if _, ok := ast.RemoveAt(parent, field, pos); !ok {
			return e.skip("replace", oldID, "position out of range")
		}
		ast.InsertAt(parent, field, pos, replacement)
	} else if !ast.Set(parent, field, replacement) {
		return e.skip("replace", oldID, "slot rejected replacement")
	}
	e.ix.Forget(loc.node)
	e.ix.Sync(parent)
	return Outcome{
		Applied: true,
		Focus:   focus.Handle(replacement.NodeID()),
		Changed: parent.NodeID(),
	}
}

// SetText overwrites an editable field of the node identified by id. An
// empty field selects the node's primary field, the last one in display order.
func (e *Engine) SetText(id string, field ast.Field, text string) Outcome {
	node, ok := e.ix.Node(id)
	if !ok {
		return e.skip("set-text", id, "not indexed")
	}
	if field == "" {
		fields := ast.ScalarFields(node)
		if len(fields) == 0 {
			return e.skip("set-text", id, "no editable field")
		}
		field = fields[len(fields)-1]
	}
	if !ast.SetScalar(node, field, text) {
		return e.skip("set-text", id, "no field "+string(field))
	}
	return Outcome{Applied: true, Focus: focus.Field(id, field), Changed: id}
}

// Retarget points a reference, call, or assignment at another declaration
// visible at the node. Calls take functions; references and assignments take
// variables and parameters.
func (e *Engine) Retarget(id, targetID string) Outcome {
	const op = "retarget"
	node, ok := e.ix.Node(id)
	if !ok {
		return e.skip(op, id, "not indexed")
	}
	var decl ast.Declaration
	for _, d := range scope.Resolve(e.ix, id) {
		if d.NodeID() == targetID {
			decl = d
			break
		}
	}
	if decl == nil {
		return e.skip(op, id, targetID+" is not a visible declaration")
	}
	function := isFunction(decl)
	switch n := node.(type) {
	case *ast.Reference:
		if function {
			return e.skip(op, id, "reference to function "+targetID)
		}
		n.TargetID = targetID
	case *ast.AssignmentExpression:
		if function {
			return e.skip(op, id, "assignment to function "+targetID)
		}
		n.TargetID = targetID
	case *ast.CallExpression:
		if !function {
			return e.skip(op, id, "call of non-function "+targetID)
		}
		n.TargetID = targetID
		n.Name = decl.DeclName()
	default:
		return e.skip(op, id, string(node.Kind())+" has no target")
	}
	return Outcome{Applied: true, Focus: focus.Handle(id), Changed: id}
}

func isFunction(d ast.Declaration) bool {
	switch d.(type) {
	case *ast.FunctionDefinition, *ast.FunctionDeclaration:
		return true
	}
	return false
}
