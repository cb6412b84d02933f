package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintAndEdit(t *testing.T) {
	dir := newWorkspace(t)

	out, err := run(t, dir, "print", "main.ast.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "int x;"), out)

	out, err = run(t, dir, "edit", "main.ast.json", "y", "move-up")
	require.NoError(t, err)
	assert.Contains(t, out, "move-up: applied=true")

	out, err = run(t, dir, "print", "main.ast.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "int y;"), out)

	out, err = run(t, dir, "print", "--outline", "main.ast.json")
	require.NoError(t, err)
	assert.Contains(t, out, "declarations[0]")

	_, err = run(t, dir, "edit", "main.ast.json", "missing", "delete")
	require.Error(t, err)
	_, err = run(t, dir, "edit", "main.ast.json", "y", "explode")
	require.Error(t, err)
}

func TestEditSetField(t *testing.T) {
	dir := newWorkspace(t)
	_, err := run(t, dir, "edit", "main.ast.json", "z", "--set", "name=total")
	require.NoError(t, err)
	out, err := run(t, dir, "print", "main.ast.json")
	require.NoError(t, err)
	assert.Contains(t, out, "int total;")

	_, err = run(t, dir, "edit", "main.ast.json", "ref-x", "--retarget", "y")
	require.NoError(t, err)
	out, err = run(t, dir, "print", "main.ast.json")
	require.NoError(t, err)
	assert.Contains(t, out, "    y;")
	assert.NotContains(t, out, "    x;")

	out, err = run(t, dir, "edit", "main.ast.json", "ref-x", "--retarget", "z")
	require.NoError(t, err)
	assert.Contains(t, out, "retarget z: applied=false", "declared after the function")
}

func TestScopeAndComplete(t *testing.T) {
	dir := newWorkspace(t)

	out, err := run(t, dir, "scope", "main.ast.json", "ref-x")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "foo")
	assert.NotContains(t, out, " z ", "declarations after the function are out of scope")

	out, err = run(t, dir, "scope", "main.ast.json", "ref-x", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "exact")

	out, err = run(t, dir, "complete", "main.ast.json", "ref-a", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "scope")
}
