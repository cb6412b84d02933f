package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	runtimesvc "github.com/lexcodex/structedit/app/runtime"
	"github.com/lexcodex/structedit/framework/keymap"
)

// newConfigCmd registers subcommands that inspect or mutate the workspace
// config.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or modify the workspace config",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Read a config value by dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadConfigTree(cfg.ConfigPath)
			if err != nil {
				return err
			}
			node, ok := lookupKey(tree, args[0])
			if !ok {
				return fmt.Errorf("key %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderNode(node))
			return nil
		},
	}
}

// newConfigSetCmd stores a value under a dotted key. The file is only
// rewritten when the result still decodes into a valid workspace config.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Update a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadConfigTree(cfg.ConfigPath)
			if err != nil {
				return err
			}
			if err := setKey(tree, args[0], args[1]); err != nil {
				return err
			}
			ws, err := decodeWorkspace(tree)
			if err != nil {
				return err
			}
			ws.LastUpdated = time.Now().Unix()
			if err := runtimesvc.SaveWorkspaceConfig(cfg.ConfigPath, ws); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}

// loadConfigTree reads the workspace config as a YAML mapping. A missing or
// empty file reads as an empty mapping.
func loadConfigTree(path string) (*yaml.Node, error) {
	empty := &yaml.Node{Kind: yaml.MappingNode}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return empty, nil
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: top level is not a mapping", path)
	}
	return doc.Content[0], nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func lookupKey(node *yaml.Node, key string) (*yaml.Node, bool) {
	for _, part := range strings.Split(key, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, false
		}
		if node = mappingValue(node, part); node == nil {
			return nil, false
		}
	}
	return node, true
}

// setKey stores value as a plain scalar, creating the sections on the way.
// The scalar's type is resolved when the tree is decoded.
func setKey(node *yaml.Node, key, value string) error {
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		next := mappingValue(node, part)
		last := i == len(parts)-1
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode}
			if last {
				next = &yaml.Node{Kind: yaml.ScalarNode}
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, next)
		}
		if last {
			*next = yaml.Node{Kind: yaml.ScalarNode, Value: value}
			return nil
		}
		if next.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a section", strings.Join(parts[:i+1], "."))
		}
		node = next
	}
	return nil
}

func renderNode(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return n.Value
	}
	return strings.TrimSpace(string(out))
}

// decodeWorkspace decodes tree strictly, so a misspelled key is an error, and
// validates the key overrides against the default keymap.
func decodeWorkspace(tree *yaml.Node) (runtimesvc.WorkspaceConfig, error) {
	var ws runtimesvc.WorkspaceConfig
	raw, err := yaml.Marshal(tree)
	if err != nil {
		return ws, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&ws); err != nil {
		return ws, fmt.Errorf("invalid config: %w", err)
	}
	if err := keymap.Default().Apply(ws.Keys); err != nil {
		return ws, fmt.Errorf("invalid config: %w", err)
	}
	merged := cfg
	merged.Merge(ws)
	if err := merged.Normalize(); err != nil {
		return ws, fmt.Errorf("invalid config: %w", err)
	}
	return ws, nil
}
