package ast

import (
	"encoding/json"
	"fmt"
)

// wireNode is the JSON shape exchanged with the language service. Every
// variant shares it; the kind discriminator selects which fields apply.
type wireNode struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id"`
	Path       string `json:"path,omitempty"`
	System     bool   `json:"system,omitempty"`
	Name       string `json:"name,omitempty"`
	Type       string `json:"type,omitempty"`
	ReturnType string `json:"returnType,omitempty"`
	Text       string `json:"text,omitempty"`
	Literal    string `json:"literal,omitempty"`
	Operator   string `json:"operator,omitempty"`
	TargetID   string `json:"targetId,omitempty"`

	Declarations []*wireNode `json:"declarations,omitempty"`
	Parameters   []*wireNode `json:"parameterList,omitempty"`
	Statements   []*wireNode `json:"codeBlock,omitempty"`
	Arguments    []*wireNode `json:"arguments,omitempty"`

	Body      *wireNode `json:"body,omitempty"`
	Condition *wireNode `json:"condition,omitempty"`
	Else      *wireNode `json:"else,omitempty"`
	Value     *wireNode `json:"value,omitempty"`
	Left      *wireNode `json:"left,omitempty"`
	Right     *wireNode `json:"right,omitempty"`
}

func (w *wireNode) list(f Field) *[]*wireNode {
	switch f {
	case FieldDeclarations:
		return &w.Declarations
	case FieldParameterList:
		return &w.Parameters
	case FieldCodeBlock:
		return &w.Statements
	case FieldArguments:
		return &w.Arguments
	}
	return nil
}

func (w *wireNode) single(f Field) **wireNode {
	switch f {
	case FieldBody:
		return &w.Body
	case FieldCondition:
		return &w.Condition
	case FieldElse:
		return &w.Else
	case FieldValue:
		return &w.Value
	case FieldLeft:
		return &w.Left
	case FieldRight:
		return &w.Right
	}
	return nil
}

func (w *wireNode) scalar(f Field) *string {
	switch f {
	case FieldPath:
		return &w.Path
	case FieldName:
		return &w.Name
	case FieldType:
		return &w.Type
	case FieldReturnType:
		return &w.ReturnType
	case FieldText:
		return &w.Text
	case FieldLiteral:
		return &w.Literal
	case FieldOperator:
		return &w.Operator
	}
	return nil
}

func toWire(n Node) *wireNode {
	w := &wireNode{Kind: n.Kind(), ID: n.NodeID()}
	switch n := n.(type) {
	case *SourceFile:
		w.Path = n.Path
	case *Include:
		w.System = n.System
	case *Reference:
		w.TargetID = n.TargetID
	case *CallExpression:
		w.TargetID = n.TargetID
	case *AssignmentExpression:
		w.TargetID = n.TargetID
	}
	for _, f := range ScalarFields(n) {
		value, _ := Scalar(n, f)
		if p := w.scalar(f); p != nil {
			*p = value
		}
	}
	for _, c := range Children(n) {
		child := toWire(c.Node)
		if l := w.list(c.Field); l != nil && Slot(n, c.Field) == SlotList {
			*l = append(*l, child)
			continue
		}
		if s := w.single(c.Field); s != nil {
			*s = child
		}
	}
	return w
}

func emptyNode(kind Kind, id string) (Node, error) {
	switch kind {
	case KindSourceFile:
		return &SourceFile{ID: id}, nil
	case KindInclude:
		return &Include{ID: id}, nil
	case KindFunctionDeclaration:
		return &FunctionDeclaration{ID: id}, nil
	case KindFunctionDefinition:
		return &FunctionDefinition{ID: id}, nil
	case KindVariableDeclaration:
		return &VariableDeclaration{ID: id}, nil
	case KindParameter:
		return &Parameter{ID: id}, nil
	case KindComment:
		return &Comment{ID: id}, nil
	case KindUnknown:
		return &Unknown{ID: id}, nil
	case KindCompoundStatement:
		return &CompoundStatement{ID: id}, nil
	case KindIfStatement:
		return &IfStatement{ID: id}, nil
	case KindElseClause:
		return &ElseClause{ID: id}, nil
	case KindReturnStatement:
		return &ReturnStatement{ID: id}, nil
	case KindCallExpression:
		return &CallExpression{ID: id}, nil
	case KindReference:
		return &Reference{ID: id}, nil
	case KindAssignmentExpression:
		return &AssignmentExpression{ID: id}, nil
	case KindNumberLiteral:
		return &NumberLiteral{ID: id}, nil
	case KindStringLiteral:
		return &StringLiteral{ID: id}, nil
	case KindBinaryExpression:
		return &BinaryExpression{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func fromWire(w *wireNode) (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: null node", ErrSlotType)
	}
	n, err := emptyNode(w.Kind, w.ID)
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case *SourceFile:
		n.Path = w.Path
	case *Include:
		n.System = w.System
	case *Reference:
		n.TargetID = w.TargetID
	case *CallExpression:
		n.TargetID = w.TargetID
	case *AssignmentExpression:
		n.TargetID = w.TargetID
	}
	for _, f := range ScalarFields(n) {
		if p := w.scalar(f); p != nil {
			SetScalar(n, f, *p)
		}
	}
	for _, f := range fields(n) {
		switch Slot(n, f) {
		case SlotList:
			for _, item := range *w.list(f) {
				child, err := fromWire(item)
				if err != nil {
					return nil, err
				}
				if !InsertAt(n, f, ListLen(n, f), child) {
					return nil, fmt.Errorf("%w: %s cannot hold %s in %s", ErrSlotType, w.Kind, child.Kind(), f)
				}
			}
		case SlotOptional, SlotRequired:
			item := *w.single(f)
			if item == nil {
				if Slot(n, f) == SlotRequired {
					return nil, fmt.Errorf("%w: %s %s missing required %s", ErrSlotType, w.Kind, w.ID, f)
				}
				continue
			}
			child, err := fromWire(item)
			if err != nil {
				return nil, err
			}
			if !Set(n, f, child) {
				return nil, fmt.Errorf("%w: %s cannot hold %s in %s", ErrSlotType, w.Kind, child.Kind(), f)
			}
		}
	}
	return n, nil
}

// Marshal encodes a node subtree.
func Marshal(n Node) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("marshal: nil node")
	}
	return json.Marshal(toWire(n))
}

// Unmarshal decodes a node subtree of any kind.
func Unmarshal(data []byte) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return fromWire(&w)
}

// UnmarshalFile decodes a whole document.
func UnmarshalFile(data []byte) (*SourceFile, error) {
	n, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	file, ok := n.(*SourceFile)
	if !ok {
		return nil, fmt.Errorf("%w: root is %s, want %s", ErrSlotType, n.Kind(), KindSourceFile)
	}
	return file, nil
}
