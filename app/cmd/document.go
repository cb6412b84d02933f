package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	runtimesvc "github.com/lexcodex/structedit/app/runtime"
	"github.com/lexcodex/structedit/app/tui"
	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/complete"
	"github.com/lexcodex/structedit/framework/focus"
	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/framework/match"
	"github.com/lexcodex/structedit/framework/scope"
	"github.com/lexcodex/structedit/framework/session"
)

func newOpenCmd() *cobra.Command {
	var serveHTTP bool
	cmd := &cobra.Command{
		Use:   "open [path]",
		Short: "Edit a document in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Quiet = true
			return runWithRuntime(cmd, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				if serveHTTP {
					stop, err := rt.StartServer(ctx, "")
					if err != nil {
						return err
					}
					defer stop(context.Background())
				}
				return tui.Run(ctx, rt, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&serveHTTP, "http", false, "Serve the HTTP document API alongside the editor")
	return cmd
}

// withSession opens path for the duration of fn.
func withSession(cmd *cobra.Command, path string, fn func(context.Context, *session.Session) error) error {
	return runWithRuntime(cmd, func(ctx context.Context, rt *runtimesvc.Runtime) error {
		s, closeFn, err := rt.OpenSession(ctx, path)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, s)
	})
}

func lookup(s *session.Session, id string) (ast.Node, error) {
	node, ok := s.Index().Node(id)
	if !ok {
		return nil, fmt.Errorf("node %s not found in %s", id, s.Path())
	}
	return node, nil
}

func newPrintCmd() *cobra.Command {
	var outline bool
	cmd := &cobra.Command{
		Use:   "print [path]",
		Short: "Print the projection of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(ctx context.Context, s *session.Session) error {
				out := cmd.OutOrStdout()
				if !outline {
					lines, _ := tui.Project(s.Index(), "")
					for _, line := range lines {
						fmt.Fprintln(out, line)
					}
					return nil
				}
				var rows [][]string
				ast.Walk(s.Root(), func(n ast.Node) bool {
					field, depth := "", 0
					if info, ok := s.Index().Parent(n.NodeID()); ok {
						field = fmt.Sprintf("%s[%d]", info.Field, info.Position)
					}
					for id := n.NodeID(); ; depth++ {
						info, ok := s.Index().Parent(id)
						if !ok {
							break
						}
						id = info.ParentID
					}
					rows = append(rows, []string{strings.Repeat("  ", depth) + string(n.Kind()), n.NodeID(), field})
					return true
				})
				return writeTable(out, []string{"KIND", "ID", "SLOT"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&outline, "outline", false, "List every node with its id and slot")
	return cmd
}

func newEditCmd() *cobra.Command {
	var set, retarget string
	cmd := &cobra.Command{
		Use:   "edit [path] [node-id] [command...]",
		Short: "Apply editor commands to a node and sync the result",
		Long: "Apply editor commands (insert-sibling-after, delete, move-up, ...) starting at node-id, " +
			"set a text field with --set field=value, or point a reference at another declaration " +
			"with --retarget decl-id, then send the edit to the language service.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(ctx context.Context, s *session.Session) error {
				if _, err := lookup(s, args[1]); err != nil {
					return err
				}
				s.Focus().Request(focus.Handle(args[1]))
				out := cmd.OutOrStdout()
				for _, name := range args[2:] {
					command := keymap.Command(name)
					if !command.Valid() {
						return fmt.Errorf("unknown command %q", name)
					}
					res, err := s.Apply(ctx, command)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: applied=%t focus=%s\n", name, res.Applied, s.Current())
				}
				if set != "" {
					field, value, ok := strings.Cut(set, "=")
					if !ok {
						return fmt.Errorf("--set expects field=value")
					}
					res, err := s.SetText(ctx, s.Current(), ast.Field(field), value)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "set %s: applied=%t\n", field, res.Applied)
				}
				if retarget != "" {
					res, err := s.Retarget(ctx, s.Current(), retarget)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "retarget %s: applied=%t\n", retarget, res.Applied)
				}
				if !s.Dirty() {
					return nil
				}
				if err := s.Sync(ctx); err != nil {
					return err
				}
				for _, notice := range s.Notices() {
					fmt.Fprintln(out, notice)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Set a text field of the focused node, as field=value")
	cmd.Flags().StringVar(&retarget, "retarget", "", "Declaration id the focused reference should point at")
	return cmd
}

func newScopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope [path] [node-id] [query]",
		Short: "List the declarations visible at a node",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(ctx context.Context, s *session.Session) error {
				if _, err := lookup(s, args[1]); err != nil {
					return err
				}
				decls := scope.Resolve(s.Index(), args[1])
				options := make([]match.Option, len(decls))
				for i, d := range decls {
					options[i] = match.Option{Label: d.DeclName(), Detail: string(d.Kind())}
				}
				query := ""
				if len(args) == 3 {
					query = args[2]
				}
				rows := make([][]string, 0, len(decls))
				for _, m := range match.Rank(options, query) {
					d := decls[m.Index]
					rows = append(rows, []string{d.DeclName(), string(d.Kind()), d.NodeID(), m.Tier.String()})
				}
				return writeTable(cmd.OutOrStdout(), []string{"NAME", "KIND", "ID", "MATCH"}, rows)
			})
		},
	}
	return cmd
}

func newCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete [path] [node-id] [query...]",
		Short: "Rank replacement candidates for a node",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(ctx context.Context, s *session.Session) error {
				if _, err := lookup(s, args[1]); err != nil {
					return err
				}
				query := strings.Join(args[2:], " ")
				var rows [][]string
				for _, sug := range complete.Suggest(s.Index(), args[1], query) {
					rows = append(rows, []string{sug.Candidate.Label, sug.Candidate.Detail, string(sug.Candidate.Source), sug.Tier.String()})
				}
				return writeTable(cmd.OutOrStdout(), []string{"LABEL", "DETAIL", "SOURCE", "MATCH"}, rows)
			})
		},
	}
	return cmd
}
