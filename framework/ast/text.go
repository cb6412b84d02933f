package ast

// ScalarFields returns the editable text fields of n in display order.
func ScalarFields(n Node) []Field {
	switch n.(type) {
	case *Include:
		return []Field{FieldPath}
	case *FunctionDeclaration, *FunctionDefinition:
		return []Field{FieldReturnType, FieldName}
	case *VariableDeclaration, *Parameter:
		return []Field{FieldType, FieldName}
	case *Comment, *Unknown:
		return []Field{FieldText}
	case *CallExpression:
		return []Field{FieldName}
	case *NumberLiteral, *StringLiteral:
		return []Field{FieldLiteral}
	case *BinaryExpression:
		return []Field{FieldOperator}
	case *SourceFile, *CompoundStatement, *IfStatement, *ElseClause, *ReturnStatement, *Reference, *AssignmentExpression:
		return nil
	}
	return nil
}

// Scalar returns the text stored in an editable field of n.
func Scalar(n Node, f Field) (string, bool) {
	p := scalarRef(n, f)
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetScalar overwrites an editable field of n.
func SetScalar(n Node, f Field, value string) bool {
	p := scalarRef(n, f)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func scalarRef(n Node, f Field) *string {
	switch n := n.(type) {
	case *Include:
		if f == FieldPath {
			return &n.Path
		}
	case *FunctionDeclaration:
		switch f {
		case FieldName:
			return &n.Name
		case FieldReturnType:
			return &n.ReturnType
		}
	case *FunctionDefinition:
		switch f {
		case FieldName:
			return &n.Name
		case FieldReturnType:
			return &n.ReturnType
		}
	case *VariableDeclaration:
		switch f {
		case FieldName:
			return &n.Name
		case FieldType:
			return &n.Type
		}
	case *Parameter:
		switch f {
		case FieldName:
			return &n.Name
		case FieldType:
			return &n.Type
		}
	case *Comment:
		if f == FieldText {
			return &n.Text
		}
	case *Unknown:
		if f == FieldText {
			return &n.Text
		}
	case *CallExpression:
		if f == FieldName {
			return &n.Name
		}
	case *NumberLiteral:
		if f == FieldLiteral {
			return &n.Value
		}
	case *StringLiteral:
		if f == FieldLiteral {
			return &n.Value
		}
	case *BinaryExpression:
		if f == FieldOperator {
			return &n.Operator
		}
	case *SourceFile, *CompoundStatement, *IfStatement, *ElseClause, *ReturnStatement, *Reference, *AssignmentExpression:
	}
	return nil
}
