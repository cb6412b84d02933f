// Package runtime wires configuration, logging, the edit journal, key
// bindings, and the language service into editing sessions.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/framework/session"
	"github.com/lexcodex/structedit/persistence"
	"github.com/lexcodex/structedit/server"
	"github.com/lexcodex/structedit/service"
)

// Runtime holds the shared resources of one structedit process.
type Runtime struct {
	Config    Config
	Workspace WorkspaceConfig
	Keymap    *keymap.Keymap
	Journal   persistence.Journal
	Logger    *log.Logger
	// Documents backs both the builtin language service and the HTTP API.
	Documents *server.Store

	logFile io.Closer

	serverMu     sync.Mutex
	serverCancel context.CancelFunc
}

// New builds a runtime. A broken workspace config is logged and ignored so
// the doctor command can still report on it.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	var out io.Writer = logFile
	if !cfg.Quiet {
		out = io.MultiWriter(os.Stdout, logFile)
	}
	logger := log.New(out, "structedit ", log.LstdFlags|log.Lmicroseconds)

	workspaceCfg, err := LoadWorkspaceConfig(cfg.ConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Printf("workspace config load failed: %v", err)
		}
		workspaceCfg = WorkspaceConfig{}
	}
	cfg.Merge(workspaceCfg)
	if err := cfg.Normalize(); err != nil {
		logFile.Close()
		return nil, err
	}

	keys := keymap.Default()
	if err := keys.Apply(workspaceCfg.Keys); err != nil {
		logger.Printf("key overrides ignored: %v", err)
		keys = keymap.Default()
	}

	docs, err := server.NewStore(cfg.Workspace)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	journal, err := openJournal(cfg)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("journal init: %w", err)
	}

	return &Runtime{
		Config:    cfg,
		Workspace: workspaceCfg,
		Keymap:    keys,
		Journal:   journal,
		Logger:    logger,
		Documents: docs,
		logFile:   logFile,
	}, nil
}

func openJournal(cfg Config) (persistence.Journal, error) {
	switch cfg.JournalBackend {
	case JournalNone:
		return nil, nil
	case JournalFile:
		return persistence.NewFileJournal(cfg.JournalPath)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755); err != nil {
			return nil, err
		}
		return persistence.NewSQLiteJournal(cfg.JournalPath)
	}
}

// Connect starts the configured language service. Without a service command
// the builtin service answers over an in-memory pipe.
func (r *Runtime) Connect(ctx context.Context) (service.Client, error) {
	if r.Config.ServiceCommand != "" {
		return service.NewProcessClient(ctx, service.ProcessConfig{
			Command: r.Config.ServiceCommand,
			Args:    r.Config.ServiceArgs,
			RootDir: r.Config.Workspace,
			Logger:  r.Logger,
		})
	}
	srv := server.NewWithStore(r.Documents, r.Logger)
	serverEnd, clientEnd := net.Pipe()
	serveCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.ServeStream(serveCtx, serverEnd); err != nil && !errors.Is(err, context.Canceled) {
			r.Logger.Printf("builtin service: %v", err)
		}
		_ = serverEnd.Close()
	}()
	stop := func() {
		cancel()
		<-done
	}
	client, err := service.NewConnClient(ctx, clientEnd, service.Options{RootDir: r.Config.Workspace, Logger: r.Logger})
	if err != nil {
		_ = clientEnd.Close()
		stop()
		return nil, err
	}
	return &builtinClient{RPCClient: client, stop: stop}, nil
}

// builtinClient stops the in-process service when closed.
type builtinClient struct {
	*service.RPCClient
	stop func()
}

func (c *builtinClient) Close() error {
	err := c.RPCClient.Close()
	c.stop()
	return err
}

// OpenSession connects to the language service and opens path. The session's
// client is closed by the returned close function.
func (r *Runtime) OpenSession(ctx context.Context, path string) (*session.Session, func() error, error) {
	client, err := r.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	s := session.New(session.Options{
		Path:    path,
		Client:  client,
		Journal: r.Journal,
		Logger:  r.Logger,
	})
	if err := s.Open(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return s, client.Close, nil
}

// StartServer launches the HTTP document API. The returned stop function
// shuts the server down using the provided context.
func (r *Runtime) StartServer(ctx context.Context, addr string) (func(context.Context) error, error) {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	if r.serverCancel != nil {
		return nil, errors.New("server already running")
	}
	if addr == "" {
		addr = r.Config.APIAddr
	}
	api := &server.APIServer{Store: r.Documents, Logger: r.Logger}
	serverCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- api.ServeContext(serverCtx, addr)
	}()
	r.serverCancel = cancel
	stopFn := func(shutdownCtx context.Context) error {
		r.serverMu.Lock()
		if r.serverCancel == nil {
			r.serverMu.Unlock()
			return nil
		}
		r.serverCancel()
		r.serverCancel = nil
		r.serverMu.Unlock()
		select {
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	}
	return stopFn, nil
}

// ServerRunning reports whether the HTTP server is active.
func (r *Runtime) ServerRunning() bool {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	return r.serverCancel != nil
}

// History returns the newest limit journal entries for path.
func (r *Runtime) History(ctx context.Context, path string, limit int) ([]persistence.Entry, error) {
	if r.Journal == nil {
		return nil, errors.New("journal disabled")
	}
	return r.Journal.History(ctx, path, limit)
}

// SaveKeys persists a key binding override in the workspace config.
func (r *Runtime) SaveKeys(mode keymap.Mode, key string, cmd keymap.Command) error {
	if err := r.Keymap.Bind(mode, key, cmd); err != nil {
		return err
	}
	if r.Workspace.Keys == nil {
		r.Workspace.Keys = map[string]map[string]string{}
	}
	if r.Workspace.Keys[string(mode)] == nil {
		r.Workspace.Keys[string(mode)] = map[string]string{}
	}
	r.Workspace.Keys[string(mode)][key] = string(cmd)
	r.Workspace.LastUpdated = time.Now().Unix()
	return SaveWorkspaceConfig(r.Config.ConfigPath, r.Workspace)
}

// Close releases the journal and the log file.
func (r *Runtime) Close() error {
	var errs []error
	if r.Journal != nil {
		errs = append(errs, r.Journal.Close())
	}
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
	}
	return errors.Join(errs...)
}
