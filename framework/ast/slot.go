package ast

import "slices"

// Field names a structural slot of a node.
type Field string

const (
	FieldDeclarations  Field = "declarations"
	FieldParameterList Field = "parameterList"
	FieldBody          Field = "body"
	FieldCodeBlock     Field = "codeBlock"
	FieldCondition     Field = "condition"
	FieldElse          Field = "else"
	FieldValue         Field = "value"
	FieldArguments     Field = "arguments"
	FieldLeft          Field = "left"
	FieldRight         Field = "right"
)

// Scalar (editable text) fields.
const (
	FieldName       Field = "name"
	FieldType       Field = "type"
	FieldReturnType Field = "returnType"
	FieldText       Field = "text"
	FieldOperator   Field = "operator"
	FieldPath       Field = "path"
	FieldLiteral    Field = "literal"
)

// SlotKind describes how a field holds its children.
type SlotKind int

const (
	SlotNone SlotKind = iota
	SlotList
	SlotOptional
	SlotRequired
)

func (k SlotKind) String() string {
	switch k {
	case SlotList:
		return "list"
	case SlotOptional:
		return "optional"
	case SlotRequired:
		return "required"
	default:
		return "none"
	}
}

// Child is one edge from a parent to a node held in one of its slots.
type Child struct {
	Field    Field
	Position int
	Node     Node
}

type slot struct {
	kind   SlotKind
	length func() int
	at     func(int) Node
	insert func(int, Node) bool
	remove func(int) (Node, bool)
	get    func() Node
	set    func(Node) bool
}

func listSlot[T Node](items *[]T) slot {
	return slot{
		kind:   SlotList,
		length: func() int { return len(*items) },
		at: func(i int) Node {
			if i < 0 || i >= len(*items) {
				return nil
			}
			return (*items)[i]
		},
		insert: func(pos int, child Node) bool {
			v, ok := child.(T)
			if !ok || pos < 0 || pos > len(*items) {
				return false
			}
			*items = slices.Insert(*items, pos, v)
			return true
		},
		remove: func(pos int) (Node, bool) {
			if pos < 0 || pos >= len(*items) {
				return nil, false
			}
			removed := (*items)[pos]
			*items = slices.Delete(*items, pos, pos+1)
			return removed, true
		},
	}
}

func singleSlot[T Node](value *T, kind SlotKind) slot {
	return slot{
		kind: kind,
		get: func() Node {
			if any(*value) == nil {
				return nil
			}
			return *value
		},
		set: func(child Node) bool {
			if child == nil {
				if kind != SlotOptional {
					return false
				}
				var zero T
				*value = zero
				return true
			}
			v, ok := child.(T)
			if !ok {
				return false
			}
			*value = v
			return true
		},
	}
}

// fields returns the structural fields of n in traversal order.
func fields(n Node) []Field {
	switch n.(type) {
	case *SourceFile:
		return []Field{FieldDeclarations}
	case *FunctionDeclaration:
		return []Field{FieldParameterList}
	case *FunctionDefinition:
		return []Field{FieldParameterList, FieldBody}
	case *VariableDeclaration:
		return []Field{FieldValue}
	case *CompoundStatement:
		return []Field{FieldCodeBlock}
	case *IfStatement:
		return []Field{FieldCondition, FieldBody, FieldElse}
	case *ElseClause:
		return []Field{FieldBody}
	case *ReturnStatement:
		return []Field{FieldValue}
	case *CallExpression:
		return []Field{FieldArguments}
	case *AssignmentExpression:
		return []Field{FieldValue}
	case *BinaryExpression:
		return []Field{FieldLeft, FieldRight}
	case *Include, *Parameter, *Comment, *Unknown, *Reference, *NumberLiteral, *StringLiteral:
		return nil
	}
	return nil
}

func slotOf(n Node, f Field) (slot, bool) {
	switch n := n.(type) {
	case *SourceFile:
		if f == FieldDeclarations {
			return listSlot(&n.Declarations), true
		}
	case *FunctionDeclaration:
		if f == FieldParameterList {
			return listSlot(&n.Parameters), true
		}
	case *FunctionDefinition:
		switch f {
		case FieldParameterList:
			return listSlot(&n.Parameters), true
		case FieldBody:
			return singleSlot(&n.Body, SlotRequired), true
		}
	case *VariableDeclaration:
		if f == FieldValue {
			return singleSlot(&n.Value, SlotOptional), true
		}
	case *CompoundStatement:
		if f == FieldCodeBlock {
			return listSlot(&n.Statements), true
		}
	case *IfStatement:
		switch f {
		case FieldCondition:
			return singleSlot(&n.Condition, SlotRequired), true
		case FieldBody:
			return singleSlot(&n.Body, SlotRequired), true
		case FieldElse:
			return singleSlot(&n.Else, SlotOptional), true
		}
	case *ElseClause:
		if f == FieldBody {
			return singleSlot(&n.Body, SlotRequired), true
		}
	case *ReturnStatement:
		if f == FieldValue {
			return singleSlot(&n.Value, SlotOptional), true
		}
	case *CallExpression:
		if f == FieldArguments {
			return listSlot(&n.Arguments), true
		}
	case *AssignmentExpression:
		if f == FieldValue {
			return singleSlot(&n.Value, SlotRequired), true
		}
	case *BinaryExpression:
		switch f {
		case FieldLeft:
			return singleSlot(&n.Left, SlotRequired), true
		case FieldRight:
			return singleSlot(&n.Right, SlotRequired), true
		}
	case *Include, *Parameter, *Comment, *Unknown, *Reference, *NumberLiteral, *StringLiteral:
	}
	return slot{}, false
}

// Fields returns the structural fields of n in traversal order.
func Fields(n Node) []Field {
	return fields(n)
}

// Children returns the direct children of n in declaration order. Empty
// optional slots are skipped.
func Children(n Node) []Child {
	var out []Child
	for _, f := range fields(n) {
		s, ok := slotOf(n, f)
		if !ok {
			continue
		}
		if s.kind == SlotList {
			for i := 0; i < s.length(); i++ {
				out = append(out, Child{Field: f, Position: i, Node: s.at(i)})
			}
			continue
		}
		if child := s.get(); child != nil {
			out = append(out, Child{Field: f, Node: child})
		}
	}
	return out
}

// Slot reports how field f of n holds children.
func Slot(n Node, f Field) SlotKind {
	s, ok := slotOf(n, f)
	if !ok {
		return SlotNone
	}
	return s.kind
}

// Get returns the child held in a single-value slot, or nil.
func Get(n Node, f Field) Node {
	s, ok := slotOf(n, f)
	if !ok || s.kind == SlotList {
		return nil
	}
	return s.get()
}

// Set stores child in a single-value slot. A nil child clears an optional
// slot. It reports false when the slot does not exist or child does not fit
// the slot's family.
func Set(n Node, f Field, child Node) bool {
	s, ok := slotOf(n, f)
	if !ok || s.kind == SlotList {
		return false
	}
	return s.set(child)
}

// ListLen returns the length of a list slot, or -1 when f is not a list.
func ListLen(n Node, f Field) int {
	s, ok := slotOf(n, f)
	if !ok || s.kind != SlotList {
		return -1
	}
	return s.length()
}

// ListAt returns the element at pos of a list slot, or nil.
func ListAt(n Node, f Field, pos int) Node {
	s, ok := slotOf(n, f)
	if !ok || s.kind != SlotList {
		return nil
	}
	return s.at(pos)
}

// InsertAt splices child into a list slot at pos (0..len).
func InsertAt(n Node, f Field, pos int, child Node) bool {
	s, ok := slotOf(n, f)
	if !ok || s.kind != SlotList || child == nil {
		return false
	}
	return s.insert(pos, child)
}

// RemoveAt removes and returns the element at pos of a list slot.
func RemoveAt(n Node, f Field, pos int) (Node, bool) {
	s, ok := slotOf(n, f)
	if !ok || s.kind != SlotList {
		return nil, false
	}
	return s.remove(pos)
}

// Fits reports whether child could be stored in field f of n.
func Fits(n Node, f Field, child Node) bool {
	if child == nil || Slot(n, f) == SlotNone {
		return false
	}
	return familyFits(n, f, child)
}

func familyFits(n Node, f Field, child Node) bool {
	switch n.(type) {
	case *SourceFile:
		_, ok := child.(Decl)
		return ok
	case *FunctionDeclaration:
		_, ok := child.(Param)
		return ok
	case *FunctionDefinition:
		if f == FieldBody {
			_, ok := child.(Block)
			return ok
		}
		_, ok := child.(Param)
		return ok
	case *CompoundStatement, *ElseClause:
		_, ok := child.(Statement)
		return ok
	case *IfStatement:
		switch f {
		case FieldElse:
			_, ok := child.(ElseBranch)
			return ok
		case FieldBody:
			_, ok := child.(Statement)
			return ok
		}
		_, ok := child.(Expr)
		return ok
	case *VariableDeclaration, *ReturnStatement, *CallExpression, *AssignmentExpression, *BinaryExpression:
		_, ok := child.(Expr)
		return ok
	}
	return false
}

// ArrayField returns the list field used when moving nodes into n.
func ArrayField(n Node) (Field, bool) {
	switch n.(type) {
	case *CompoundStatement:
		return FieldCodeBlock, true
	case *FunctionDeclaration, *FunctionDefinition:
		return FieldParameterList, true
	case *CallExpression:
		return FieldArguments, true
	case *SourceFile:
		return FieldDeclarations, true
	}
	return "", false
}
