package focus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/ast/asttest"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/index"
)

func TestStateSingleOutstandingRequest(t *testing.T) {
	var s focus.State
	_, ok := s.Consume()
	assert.False(t, ok)

	s.Request(focus.Handle("a"))
	s.Request(focus.Field("b", ast.FieldName))
	pending, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, focus.Request{NodeID: "b", Field: ast.FieldName}, pending)

	got, ok := s.Consume()
	require.True(t, ok)
	assert.Equal(t, "b", got.NodeID)
	assert.Equal(t, got, s.Selected())

	_, ok = s.Consume()
	assert.False(t, ok, "request is cleared once consumed")
}

func TestStateIgnoresZeroRequest(t *testing.T) {
	var s focus.State
	s.Request(focus.Request{})
	_, ok := s.Pending()
	assert.False(t, ok)
}

func TestNavigator(t *testing.T) {
	fx := asttest.Program()
	nav := focus.Navigator{Index: index.Build(fx.File)}

	parent, ok := nav.Parent("ret")
	require.True(t, ok)
	assert.Equal(t, "body", parent)

	next, ok := nav.NextSibling("a")
	require.True(t, ok)
	assert.Equal(t, "body", next, "siblings cross from parameters to body")

	prev, ok := nav.PrevSibling("foo")
	require.True(t, ok)
	assert.Equal(t, "y", prev)

	_, ok = nav.PrevSibling("x")
	assert.False(t, ok)

	child, ok := nav.FirstChild("foo")
	require.True(t, ok)
	assert.Equal(t, "a", child)

	_, ok = nav.FirstChild("ref-x")
	assert.False(t, ok)
	_, ok = nav.Parent("file")
	assert.False(t, ok)
}
