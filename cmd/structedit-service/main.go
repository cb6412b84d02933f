// Command structedit-service is the reference language service. It serves
// the documents below --root as JSON-RPC on stdin/stdout, which is how the
// editor launches external services.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	logpkg "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexcodex/structedit/server"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:           "structedit-service",
		Short:         "Serve structedit documents over stdio",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logpkg.New(os.Stderr, "structedit-service ", logpkg.LstdFlags)
			srv, err := server.New(root, logger)
			if err != nil {
				return err
			}
			logger.Printf("serving %s", srv.Store.Root())
			err = srv.ServeStream(cmd.Context(), stdio{})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "Directory holding the documents")
	cmd.SetVersionTemplate("{{.Version}}\n")
	return cmd
}

// stdio joins the process's standard streams into one connection.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error {
	return errors.Join(os.Stdin.Close(), os.Stdout.Close())
}

var _ io.ReadWriteCloser = stdio{}
