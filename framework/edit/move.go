package edit

import (
	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/focus"
)

// MoveUp swaps the node with its previous sibling. At the start of its list
// the node is re-parented before its parent in the grandparent's list.
func (e *Engine) MoveUp(id string) Outcome {
	return e.move("move-up", id, -1)
}

// MoveDown swaps the node with its next sibling. At the end of its list the
// node is re-parented after its parent in the grandparent's list.
func (e *Engine) MoveDown(id string) Outcome {
	return e.move("move-down", id, 1)
}

func (e *Engine) move(op, id string, delta int) Outcome {
	loc, ok := e.locate(id)
	if !ok {
		return e.skip(op, id, "no parent")
	}
	parent, field, pos := loc.parent, loc.info.Field, loc.info.Position
	if ast.Slot(parent, field) != ast.SlotList {
		return e.skip(op, id, "not in a list")
	}
	target := pos + delta
	if target >= 0 && target < ast.ListLen(parent, field) {
		ast.RemoveAt(parent, field, pos)
		ast.InsertAt(parent, field, target, loc.node)
		e.ix.Sync(parent)
		return Outcome{Applied: true, Focus: focus.Handle(id), Changed: parent.NodeID()}
	}
	return e.escape(op, loc, delta > 0)
}

// escape moves loc.node out of its parent's list into the list that holds
// the parent, directly before or after the parent.
func (e *Engine) escape(op string, loc location, after bool) Outcome {
	id := loc.node.NodeID()
	grand, parentInfo, ok := e.ix.ParentNode(loc.parent.NodeID())
	if !ok {
		return e.skip(op, id, "parent has no parent")
	}
	if ast.Slot(grand, parentInfo.Field) != ast.SlotList {
		return e.skip(op, id, "grandparent slot is not a list")
	}
	if !ast.Fits(grand, parentInfo.Field, loc.node) {
		return e.skip(op, id, string(loc.node.Kind())+" does not fit "+string(parentInfo.Field))
	}
	if _, ok := ast.RemoveAt(loc.parent, loc.info.Field, loc.info.Position); !ok {
		return e.skip(op, id, "position out of range")
	}
	pos := parentInfo.Position
	if after {
		pos++
	}
	ast.InsertAt(grand, parentInfo.Field, pos, loc.node)
	e.ix.Sync(loc.parent)
	e.ix.Sync(grand)
	return Outcome{Applied: true, Focus: focus.Handle(id), Changed: grand.NodeID()}
}

// MoveIntoSibling moves the node into the list field of an adjacent sibling.
// First moves it to the start of the next sibling; Last moves it to the end
// of the previous sibling.
func (e *Engine) MoveIntoSibling(id string, end End) Outcome {
	const op = "move-into-sibling"
	loc, ok := e.locate(id)
	if !ok {
		return e.skip(op, id, "no parent")
	}
	parent, field, pos := loc.parent, loc.info.Field, loc.info.Position
	if ast.Slot(parent, field) != ast.SlotList {
		return e.skip(op, id, "not in a list")
	}
	siblingPos := pos + 1
	if end == Last {
		siblingPos = pos - 1
	}
	sibling := ast.ListAt(parent, field, siblingPos)
	if sibling == nil {
		return e.skip(op, id, "no adjacent sibling")
	}
	target, ok := ast.ArrayField(sibling)
	if !ok {
		return e.skip(op, id, string(sibling.Kind())+" has no list field")
	}
	if !ast.Fits(sibling, target, loc.node) {
		return e.skip(op, id, string(loc.node.Kind())+" does not fit "+string(target))
	}
	ast.RemoveAt(parent, field, pos)
	insertAt := 0
	if end == Last {
		insertAt = ast.ListLen(sibling, target)
	}
	ast.InsertAt(sibling, target, insertAt, loc.node)
	e.ix.Sync(parent)
	e.ix.Sync(sibling)
	return Outcome{Applied: true, Focus: focus.Handle(id), Changed: parent.NodeID()}
}
