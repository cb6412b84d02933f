package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	dir := newWorkspace(t)
	_, err := run(t, dir, "edit", "main.ast.json", "y", "move-up")
	require.NoError(t, err)

	out, err := run(t, dir, "history", "main.ast.json")
	require.NoError(t, err)
	assert.Contains(t, out, "COMMAND")
	assert.Regexp(t, `move-up\s+y\s`, out)

	_, err = run(t, dir, "--journal", "none", "history", "main.ast.json")
	require.Error(t, err)
}

func TestKeysBindPersists(t *testing.T) {
	dir := newWorkspace(t)

	_, err := run(t, dir, "keys", "bind", "view", "x", "delete")
	require.NoError(t, err)

	out, err := run(t, dir, "config", "get", "keys.view.x")
	require.NoError(t, err)
	assert.Equal(t, "delete\n", out)

	out, err = run(t, dir, "keys")
	require.NoError(t, err)
	assert.Regexp(t, `view\s+x\s+delete`, out)

	_, err = run(t, dir, "keys", "bind", "view", "x", "explode")
	require.Error(t, err)
}

func TestDoctor(t *testing.T) {
	dir := newWorkspace(t)
	out, err := run(t, dir, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Service:   builtin")
	assert.Contains(t, out, "main.ast.json")

	_, err = run(t, dir, "--service", "structedit-no-such-service", "doctor")
	require.Error(t, err)
}
