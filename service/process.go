package service

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// ProcessConfig describes a language service launched as a child process
// speaking JSON-RPC on stdio.
type ProcessConfig struct {
	Command string
	Args    []string
	RootDir string
	Logger  *log.Logger
}

// NewProcessClient launches the configured service and performs the
// handshake.
func NewProcessClient(ctx context.Context, cfg ProcessConfig) (*RPCClient, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required for language service")
	}
	root := cfg.RootDir
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Dir = absRoot

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	stop := func() {
		cancel()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
	}

	rwc := &stdioReadWriteCloser{reader: stdout, writer: stdin}
	client, err := NewConnClient(ctx, rwc, Options{RootDir: absRoot, Logger: cfg.Logger})
	if err != nil {
		stop()
		return nil, err
	}
	client.onClose = stop
	return client, nil
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
