package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigTreeKeys(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("service:\n  command: cservice\n"), &doc))
	tree := doc.Content[0]

	node, ok := lookupKey(tree, "service.command")
	require.True(t, ok)
	assert.Equal(t, "cservice", renderNode(node))

	require.NoError(t, setKey(tree, "service.command", "other"))
	node, ok = lookupKey(tree, "service.command")
	require.True(t, ok)
	assert.Equal(t, "other", node.Value)

	require.NoError(t, setKey(tree, "keys.view.x", "delete"))
	node, ok = lookupKey(tree, "keys")
	require.True(t, ok)
	assert.Equal(t, "view:\n    x: delete", renderNode(node))

	_, ok = lookupKey(tree, "service.command.name")
	assert.False(t, ok)
	assert.Error(t, setKey(tree, "service.command.name", "x"))
	assert.Error(t, setKey(tree, "service..command", "x"))
}

func TestDecodeWorkspace(t *testing.T) {
	cfg.Workspace = t.TempDir()
	decode := func(src string) error {
		t.Helper()
		var doc yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
		_, err := decodeWorkspace(doc.Content[0])
		return err
	}

	require.NoError(t, decode("keys:\n  view:\n    x: delete\n"))
	require.Error(t, decode("keys:\n  view:\n    x: explode\n"))
	require.Error(t, decode("journal:\n  backend: postgres\n"))
	require.Error(t, decode("servce:\n  command: cservice\n"), "misspelled section")
	require.Error(t, decode("service:\n  args: cservice\n"), "args is a list")
}

func TestConfigSetGet(t *testing.T) {
	dir := newWorkspace(t)

	_, err := run(t, dir, "config", "set", "api.addr", ":9090")
	require.NoError(t, err)
	out, err := run(t, dir, "config", "get", "api.addr")
	require.NoError(t, err)
	assert.Equal(t, ":9090\n", out)

	out, err = run(t, dir, "config", "get", "last_updated")
	require.NoError(t, err)
	assert.NotEqual(t, "0\n", out)

	_, err = run(t, dir, "config", "set", "journal.backend", "postgres")
	require.Error(t, err)
	_, err = run(t, dir, "config", "set", "api.adress", ":9090")
	require.Error(t, err)
	_, err = run(t, dir, "config", "get", "journal.backend")
	require.Error(t, err, "rejected values are not written")
}
