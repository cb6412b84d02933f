// Package cmd wires the structedit command tree.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	runtimesvc "github.com/lexcodex/structedit/app/runtime"
)

var (
	cfg     = runtimesvc.DefaultConfig()
	verbose bool
)

// Execute is the entry point for the CLI.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "structedit",
		Short:         "Structure editor for C-like sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Quiet = !verbose
			return cfg.Normalize()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Workspace, "workspace", cfg.Workspace, "Workspace directory")
	flags.StringVar(&cfg.ConfigPath, "config", "", "Path to the workspace config file")
	flags.StringVar(&cfg.LogPath, "log", "", "Log file path")
	flags.StringVar(&cfg.JournalBackend, "journal", cfg.JournalBackend, "Edit journal backend (sqlite, file, none)")
	flags.StringVar(&cfg.JournalPath, "journal-path", "", "Edit journal location")
	flags.StringVar(&cfg.ServiceCommand, "service", "", "Language service command; empty runs the builtin service")
	flags.StringSliceVar(&cfg.ServiceArgs, "service-arg", nil, "Argument passed to the language service (repeatable)")
	flags.StringVar(&cfg.APIAddr, "addr", cfg.APIAddr, "HTTP API listen address")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Mirror the log to stdout")

	root.AddCommand(
		newOpenCmd(),
		newPrintCmd(),
		newEditCmd(),
		newScopeCmd(),
		newCompleteCmd(),
		newHistoryCmd(),
		newKeysCmd(),
		newConfigCmd(),
		newServeCmd(),
		newDoctorCmd(),
	)
	return root
}

// runWithRuntime builds a runtime for the duration of fn.
func runWithRuntime(cmd *cobra.Command, fn func(context.Context, *runtimesvc.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := runtimesvc.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}
