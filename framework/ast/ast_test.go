package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/ast/asttest"
)

func TestEveryKindDecodes(t *testing.T) {
	for _, kind := range ast.Kinds() {
		data := []byte(`{"kind":"` + string(kind) + `","id":"n"}`)
		n, err := ast.Unmarshal(data)
		switch kind {
		case ast.KindFunctionDefinition, ast.KindIfStatement, ast.KindElseClause,
			ast.KindAssignmentExpression, ast.KindBinaryExpression:
			require.ErrorIs(t, err, ast.ErrSlotType, "kind %s has required slots", kind)
			continue
		}
		require.NoError(t, err, "kind %s", kind)
		require.Equal(t, kind, n.Kind())
		require.Equal(t, "n", n.NodeID())
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	_, err := ast.Unmarshal([]byte(`{"kind":"whileStatement","id":"w"}`))
	require.ErrorIs(t, err, ast.ErrUnknownKind)
}

func TestChildrenDeclarationOrder(t *testing.T) {
	cond := &ast.Reference{ID: "c"}
	body := &ast.CompoundStatement{ID: "b"}
	elseBody := &ast.ReturnStatement{ID: "r"}
	ifs := &ast.IfStatement{ID: "if", Condition: cond, Body: body, Else: &ast.ElseClause{ID: "e", Body: elseBody}}

	children := ast.Children(ifs)
	require.Len(t, children, 3)
	assert.Equal(t, ast.FieldCondition, children[0].Field)
	assert.Equal(t, ast.FieldBody, children[1].Field)
	assert.Equal(t, ast.FieldElse, children[2].Field)

	fx := asttest.Program()
	children = ast.Children(fx.Foo)
	require.Len(t, children, 2)
	assert.Equal(t, ast.Child{Field: ast.FieldParameterList, Position: 0, Node: fx.A}, children[0])
	assert.Equal(t, ast.Child{Field: ast.FieldBody, Node: fx.Body}, children[1])
}

func TestSlotKinds(t *testing.T) {
	assert.Equal(t, ast.SlotList, ast.Slot(&ast.SourceFile{}, ast.FieldDeclarations))
	assert.Equal(t, ast.SlotRequired, ast.Slot(&ast.FunctionDefinition{}, ast.FieldBody))
	assert.Equal(t, ast.SlotOptional, ast.Slot(&ast.ReturnStatement{}, ast.FieldValue))
	assert.Equal(t, ast.SlotOptional, ast.Slot(&ast.IfStatement{}, ast.FieldElse))
	assert.Equal(t, ast.SlotRequired, ast.Slot(&ast.AssignmentExpression{}, ast.FieldValue))
	assert.Equal(t, ast.SlotNone, ast.Slot(&ast.Reference{}, ast.FieldValue))
}

func TestSetEnforcesFamilies(t *testing.T) {
	def := &ast.FunctionDefinition{ID: "f", Body: &ast.CompoundStatement{ID: "b"}}

	assert.False(t, ast.Set(def, ast.FieldBody, &ast.ReturnStatement{ID: "r"}), "a return is not a block")
	assert.False(t, ast.Set(def, ast.FieldBody, nil), "required slot cannot be cleared")
	assert.True(t, ast.Set(def, ast.FieldBody, ast.NewUnknown("")), "unknown fits every slot")

	ret := &ast.ReturnStatement{ID: "r", Value: &ast.NumberLiteral{ID: "1", Value: "1"}}
	assert.True(t, ast.Set(ret, ast.FieldValue, nil))
	assert.Nil(t, ast.Get(ret, ast.FieldValue))
	assert.Empty(t, ast.Children(ret))
}

func TestInsertAndRemove(t *testing.T) {
	fx := asttest.Program()
	assert.False(t, ast.InsertAt(fx.Foo, ast.FieldParameterList, 0, &ast.ReturnStatement{ID: "r"}))
	assert.False(t, ast.InsertAt(fx.Foo, ast.FieldParameterList, 5, ast.NewUnknown("")))
	require.True(t, ast.InsertAt(fx.Foo, ast.FieldParameterList, 1, &ast.Parameter{ID: "b", Name: "b"}))
	require.Equal(t, 2, ast.ListLen(fx.Foo, ast.FieldParameterList))

	removed, ok := ast.RemoveAt(fx.Foo, ast.FieldParameterList, 0)
	require.True(t, ok)
	assert.Same(t, fx.A, removed)
	assert.Equal(t, "b", ast.ListAt(fx.Foo, ast.FieldParameterList, 0).NodeID())
	assert.Equal(t, -1, ast.ListLen(fx.Foo, ast.FieldBody))
}

func TestScalarFields(t *testing.T) {
	fx := asttest.Program()
	name, ok := ast.Scalar(fx.Foo, ast.FieldName)
	require.True(t, ok)
	assert.Equal(t, "foo", name)
	require.True(t, ast.SetScalar(fx.Foo, ast.FieldName, "bar"))
	assert.Equal(t, "bar", fx.Foo.Name)
	assert.False(t, ast.SetScalar(fx.RefX, ast.FieldName, "x"))
}

func TestCodecRoundTrip(t *testing.T) {
	fx := asttest.Program()
	fx.Body.Statements = append(fx.Body.Statements, &ast.IfStatement{
		ID:        "if",
		Condition: &ast.BinaryExpression{ID: "bin", Left: &ast.Reference{ID: "l", TargetID: "x"}, Operator: "<", Right: &ast.NumberLiteral{ID: "n", Value: "3"}},
		Body:      &ast.CallExpression{ID: "call", TargetID: "foo", Name: "foo", Arguments: []ast.Expr{&ast.StringLiteral{ID: "s", Value: "hi"}}},
		Else:      &ast.ElseClause{ID: "else", Body: &ast.AssignmentExpression{ID: "asg", TargetID: "y", Value: ast.NewUnknown("?")}},
	})

	data, err := ast.Marshal(fx.File)
	require.NoError(t, err)
	decoded, err := ast.UnmarshalFile(data)
	require.NoError(t, err)

	again, err := ast.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	var ids []string
	ast.Walk(decoded, func(n ast.Node) bool {
		ids = append(ids, n.NodeID())
		return true
	})
	assert.Equal(t, "file", ids[0])
	assert.Contains(t, ids, "asg")
	assert.Contains(t, ids, "ref-a")
}

func TestUnmarshalRejectsMisplacedChild(t *testing.T) {
	data := []byte(`{"kind":"sourceFile","id":"f","declarations":[{"kind":"returnStatement","id":"r"}]}`)
	_, err := ast.UnmarshalFile(data)
	require.ErrorIs(t, err, ast.ErrSlotType)
}

func TestValidate(t *testing.T) {
	fx := asttest.Program()
	require.NoError(t, ast.Validate(fx.File))

	fx.Body.Statements = append(fx.Body.Statements, &ast.Reference{ID: "x"})
	require.ErrorIs(t, ast.Validate(fx.File), ast.ErrDuplicateID)

	require.ErrorIs(t, ast.Validate(&ast.SourceFile{}), ast.ErrMissingID)
}

func TestCloneAssignsFreshIDs(t *testing.T) {
	fx := asttest.Program()
	node, err := ast.Clone(fx.Foo)
	require.NoError(t, err)
	copied := node.(*ast.FunctionDefinition)

	assert.NotEqual(t, fx.Foo.ID, copied.ID)
	assert.Equal(t, "foo", copied.Name)
	param := copied.Parameters[0].(*ast.Parameter)
	assert.NotEqual(t, "a", param.ID)

	ret := copied.Body.(*ast.CompoundStatement).Statements[1].(*ast.ReturnStatement)
	assert.Equal(t, param.ID, ret.Value.(*ast.Reference).TargetID, "internal references follow the copy")

	refX := copied.Body.(*ast.CompoundStatement).Statements[0].(*ast.Reference)
	assert.Equal(t, "x", refX.TargetID, "external references are kept")
}

func TestCloneRejectsEmptyRequiredSlot(t *testing.T) {
	node, err := ast.Clone(&ast.FunctionDefinition{ID: "f", Name: "f"})
	require.ErrorIs(t, err, ast.ErrSlotType)
	assert.Nil(t, node)

	node, err = ast.Clone(nil)
	require.NoError(t, err)
	assert.Nil(t, node)
}
