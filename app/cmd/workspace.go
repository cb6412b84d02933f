package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	runtimesvc "github.com/lexcodex/structedit/app/runtime"
	"github.com/lexcodex/structedit/framework/keymap"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show journaled edits of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				entries, err := rt.History(ctx, args[0], limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Format(time.RFC3339),
						e.Command,
						e.NodeID,
						e.FocusID,
						strconv.FormatBool(e.Applied),
						strconv.FormatUint(e.Fingerprint, 16),
					})
				}
				return writeTable(cmd.OutOrStdout(), []string{"TIME", "COMMAND", "NODE", "FOCUS", "APPLIED", "TREE"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	return cmd
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List key bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				var rows [][]string
				for _, mode := range []keymap.Mode{keymap.ModeView, keymap.ModeEdit} {
					for _, b := range rt.Keymap.Bindings(mode) {
						rows = append(rows, []string{string(mode), b.Key, string(b.Command)})
					}
				}
				return writeTable(cmd.OutOrStdout(), []string{"MODE", "KEY", "COMMAND"}, rows)
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "bind [mode] [key] [command]",
		Short: "Bind a key in the workspace config",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				mode, key, command := keymap.Mode(args[0]), args[1], keymap.Command(args[2])
				if err := rt.SaveKeys(mode, key, command); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", mode, key, command)
				return nil
			})
		},
	})
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve workspace documents over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, rt *runtimesvc.Runtime) error {
				ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stopSignals()
				stop, err := rt.StartServer(ctx, "")
				if err != nil {
					return err
				}
				rt.Logger.Printf("serving %s on %s", rt.Config.Workspace, rt.Config.APIAddr)
				fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", rt.Config.Workspace, rt.Config.APIAddr)
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return stop(shutdownCtx)
			})
		},
	}
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the workspace, its config, and the language service",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := runtimesvc.ProbeEnvironment(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workspace: %s\n", report.Workspace)
			fmt.Fprintf(out, "Config:    %s\n", report.ConfigPath)
			if report.ConfigError != "" {
				fmt.Fprintf(out, "  error: %s\n", report.ConfigError)
			}
			svc := report.Service
			switch {
			case svc.Builtin:
				fmt.Fprintln(out, "Service:   builtin")
			default:
				fmt.Fprintf(out, "Service:   %s (%s)\n", svc.Command, svc.Path)
				if svc.Version != "" {
					fmt.Fprintf(out, "  version: %s\n", svc.Version)
				}
				if svc.Error != "" {
					fmt.Fprintf(out, "  error: %s\n", svc.Error)
				}
			}
			fmt.Fprintf(out, "Journal:   %s %s (exists=%t)\n", report.Journal.Backend, report.Journal.Path, report.Journal.Exists)
			for _, keyErr := range report.KeyErrors {
				fmt.Fprintf(out, "  key: %s\n", keyErr)
			}
			fmt.Fprintf(out, "Documents: %d\n", len(report.Documents))
			for _, doc := range report.Documents {
				fmt.Fprintf(out, "  %s\n", doc)
			}
			if !report.Healthy() {
				return fmt.Errorf("environment has problems: %s", strings.Join(problems(report), ", "))
			}
			return nil
		},
	}
}

func problems(report runtimesvc.EnvironmentReport) []string {
	var out []string
	if report.ConfigError != "" {
		out = append(out, "config")
	}
	if report.Service.Error != "" {
		out = append(out, "service")
	}
	if len(report.KeyErrors) > 0 {
		out = append(out, "keys")
	}
	return out
}
