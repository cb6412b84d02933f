// Package keymap maps key presses to editor commands per input mode. A key
// with no binding in the active mode dispatches nothing.
package keymap

import (
	"fmt"
	"sort"
)

// Mode is an input mode of the editor.
type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// Command is a semantic editor command.
type Command string

const (
	InsertSiblingAfter  Command = "insert-sibling-after"
	InsertSiblingBefore Command = "insert-sibling-before"
	Delete              Command = "delete"
	MoveUp              Command = "move-up"
	MoveDown            Command = "move-down"
	MoveIntoNext        Command = "move-into-next"
	MoveIntoPrevious    Command = "move-into-previous"
	InsertFirstChild    Command = "insert-first-child"
	InsertLastChild     Command = "insert-last-child"
	FocusParent         Command = "focus-parent"
	FocusNext           Command = "focus-next"
	FocusPrevious       Command = "focus-previous"
	FocusChild          Command = "focus-child"
	EnterEdit           Command = "enter-edit"
	LeaveEdit           Command = "leave-edit"
	Complete            Command = "complete"
	Sync                Command = "sync"
	Yank                Command = "yank"
	Paste               Command = "paste"
	Quit                Command = "quit"
)

var known = map[Command]struct{}{
	InsertSiblingAfter: {}, InsertSiblingBefore: {}, Delete: {},
	MoveUp: {}, MoveDown: {}, MoveIntoNext: {}, MoveIntoPrevious: {},
	InsertFirstChild: {}, InsertLastChild: {},
	FocusParent: {}, FocusNext: {}, FocusPrevious: {}, FocusChild: {},
	EnterEdit: {}, LeaveEdit: {}, Complete: {},
	Sync: {}, Yank: {}, Paste: {}, Quit: {},
}

// Valid reports whether c is a command the editor understands.
func (c Command) Valid() bool {
	_, ok := known[c]
	return ok
}

// Structural reports whether the command mutates the tree.
func (c Command) Structural() bool {
	switch c {
	case InsertSiblingAfter, InsertSiblingBefore, Delete, MoveUp, MoveDown,
		MoveIntoNext, MoveIntoPrevious, InsertFirstChild, InsertLastChild, Paste:
		return true
	}
	return false
}

// Keymap holds one key table per mode.
type Keymap struct {
	tables map[Mode]map[string]Command
}

// Default returns the stock bindings.
func Default() *Keymap {
	return &Keymap{tables: map[Mode]map[string]Command{
		ModeView: {
			"enter":       InsertSiblingAfter,
			"shift+enter": InsertSiblingBefore,
			"delete":      Delete,
			"up":          FocusPrevious,
			"k":           FocusPrevious,
			"down":        FocusNext,
			"j":           FocusNext,
			"left":        FocusParent,
			"h":           FocusParent,
			"right":       FocusChild,
			"l":           FocusChild,
			"K":           MoveUp,
			"J":           MoveDown,
			">":           MoveIntoNext,
			"<":           MoveIntoPrevious,
			"i":           EnterEdit,
			"s":           Sync,
			"y":           Yank,
			"p":           Paste,
			"q":           Quit,
			"ctrl+c":      Quit,
		},
		ModeEdit: {
			"enter":       InsertFirstChild,
			"shift+enter": InsertLastChild,
			"delete":      Delete,
			"esc":         LeaveEdit,
			"tab":         Complete,
			"ctrl+c":      Quit,
		},
	}}
}

// Dispatch returns the command bound to key in mode.
func (k *Keymap) Dispatch(mode Mode, key string) (Command, bool) {
	cmd, ok := k.tables[mode][key]
	return cmd, ok
}

// Bind attaches cmd to key in mode. An empty command removes the binding.
func (k *Keymap) Bind(mode Mode, key string, cmd Command) error {
	if mode != ModeView && mode != ModeEdit {
		return fmt.Errorf("keymap: unknown mode %q", mode)
	}
	if cmd == "" {
		delete(k.tables[mode], key)
		return nil
	}
	if !cmd.Valid() {
		return fmt.Errorf("keymap: unknown command %q", cmd)
	}
	if k.tables[mode] == nil {
		k.tables[mode] = map[string]Command{}
	}
	k.tables[mode][key] = cmd
	return nil
}

// Apply overlays configured bindings, keyed mode -> key -> command.
func (k *Keymap) Apply(overrides map[string]map[string]string) error {
	modes := make([]string, 0, len(overrides))
	for mode := range overrides {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		for key, cmd := range overrides[mode] {
			if err := k.Bind(Mode(mode), key, Command(cmd)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Binding is one row of a key table.
type Binding struct {
	Key     string
	Command Command
}

// Bindings lists the table for mode sorted by command then key.
func (k *Keymap) Bindings(mode Mode) []Binding {
	out := make([]Binding, 0, len(k.tables[mode]))
	for key, cmd := range k.tables[mode] {
		out = append(out, Binding{Key: key, Command: cmd})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Command != out[j].Command {
			return out[i].Command < out[j].Command
		}
		return out[i].Key < out[j].Key
	})
	return out
}
