package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/ast/asttest"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/framework/match"
)

func labels(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Label
	}
	return out
}

func TestCandidatesInsideFunctionBody(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)

	got := labels(Candidates(ix, "ret"))
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "x")
	assert.Contains(t, got, "foo()")
	assert.Contains(t, got, "if")
	assert.Contains(t, got, "return")
	assert.NotContains(t, got, "z", "declared later")
	assert.NotContains(t, got, "function", "definitions only at top level")
	assert.NotContains(t, got, "else")
}

func TestCandidatesTopLevel(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)

	got := labels(Candidates(ix, "z"))
	assert.Contains(t, got, "#include")
	assert.Contains(t, got, "function")
	assert.Contains(t, got, "int")
	assert.NotContains(t, got, "x", "references are not declarations")
	assert.NotContains(t, got, "if")
}

func TestCandidatesParameterSlot(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)

	cands := Candidates(ix, "a")
	require.NotEmpty(t, cands)
	for _, c := range cands {
		assert.Equal(t, "parameter", c.Detail)
	}
	p, ok := cands[0].Build("int count").(*ast.Parameter)
	require.True(t, ok)
	assert.Equal(t, "count", p.Name)
}

func TestCandidatesRootIsEmpty(t *testing.T) {
	fx := asttest.Program()
	assert.Empty(t, Candidates(index.Build(fx.File), "file"))
	assert.Empty(t, Candidates(nil, "x"))
}

func TestSuggestRanksAndBuilds(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)

	got := Suggest(ix, "ref-a", "fo")
	require.NotEmpty(t, got)
	assert.Equal(t, "foo()", got[0].Candidate.Label)
	assert.Equal(t, match.TierPrefix, got[0].Tier)
	assert.Equal(t, []int{0, 1}, got[0].Indices)

	call, ok := got[0].Candidate.Build("fo").(*ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, "foo", call.TargetID)
	assert.Len(t, call.Arguments, 1, "one placeholder per parameter")
	require.NoError(t, ast.Validate(call))
}

func TestSuggestReference(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)

	got := Suggest(ix, "ref-a", "a")
	require.NotEmpty(t, got)
	assert.Equal(t, "a", got[0].Candidate.Label)
	ref, ok := got[0].Candidate.Build("a").(*ast.Reference)
	require.True(t, ok)
	assert.Equal(t, "a", ref.TargetID)
	assert.NotEqual(t, "ref-a", ref.ID)
}

func TestSuggestLiteral(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)

	got := Suggest(ix, "ref-a", "42")
	require.NotEmpty(t, got)
	assert.Equal(t, SourceLiteral, got[0].Candidate.Source)
	lit, ok := got[0].Candidate.Build("42").(*ast.NumberLiteral)
	require.True(t, ok)
	assert.Equal(t, "42", lit.Value)

	got = Suggest(ix, "ref-a", `"hi"`)
	require.NotEmpty(t, got)
	str, ok := got[0].Candidate.Build(`"hi"`).(*ast.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, "hi", str.Value)
}

func TestTemplatesFillRequiredSlots(t *testing.T) {
	for _, c := range templates() {
		n := c.Build(c.Label + " name")
		require.NotNil(t, n, c.Label)
		data, err := ast.Marshal(n)
		require.NoError(t, err, c.Label)
		_, err = ast.Unmarshal(data)
		assert.NoError(t, err, c.Label)
	}
}

func TestVariableTemplateUsesName(t *testing.T) {
	fx := asttest.Program()
	ix := index.Build(fx.File)
	got := Suggest(ix, "z", "int total")
	require.NotEmpty(t, got)
	v, ok := got[0].Candidate.Build("int total").(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, "total", v.Name)
	assert.Equal(t, "int", v.Type)
}
