package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexcodex/structedit/framework/keymap"
	"github.com/lexcodex/structedit/server"
)

// ServiceReport describes the language service the editor would talk to.
type ServiceReport struct {
	Builtin bool
	Command string
	Path    string
	Version string
	Error   string
}

// JournalReport describes the configured edit journal.
type JournalReport struct {
	Backend string
	Path    string
	Exists  bool
}

// EnvironmentReport aggregates the doctor probes.
type EnvironmentReport struct {
	Workspace   string
	ConfigPath  string
	ConfigError string
	Config      WorkspaceConfig
	Service     ServiceReport
	Journal     JournalReport
	Documents   []string
	KeyErrors   []string
	Timestamp   time.Time
}

// Healthy reports whether every probe passed.
func (r EnvironmentReport) Healthy() bool {
	return r.ConfigError == "" && r.Service.Error == "" && len(r.KeyErrors) == 0
}

// ProbeEnvironment inspects the workspace, its configuration, the language
// service binary, and the journal.
func ProbeEnvironment(ctx context.Context, cfg Config) EnvironmentReport {
	report := EnvironmentReport{
		Workspace:  cfg.Workspace,
		ConfigPath: cfg.ConfigPath,
		Timestamp:  time.Now(),
	}
	wcfg, err := LoadWorkspaceConfig(cfg.ConfigPath)
	switch {
	case err == nil:
		report.Config = wcfg
		cfg.Merge(wcfg)
	case !os.IsNotExist(err):
		report.ConfigError = err.Error()
	}
	report.KeyErrors = checkKeys(wcfg.Keys)
	report.Service = inspectService(ctx, cfg)
	report.Journal = JournalReport{Backend: cfg.JournalBackend, Path: cfg.JournalPath}
	if cfg.JournalBackend != JournalNone {
		if _, err := os.Stat(cfg.JournalPath); err == nil {
			report.Journal.Exists = true
		}
	}
	report.Documents = findDocuments(cfg.Workspace)
	return report
}

// checkKeys applies overrides to a scratch keymap and collects each failure.
func checkKeys(overrides map[string]map[string]string) []string {
	var errs []string
	for mode, keys := range overrides {
		for key, cmd := range keys {
			scratch := keymap.Default()
			if err := scratch.Bind(keymap.Mode(mode), key, keymap.Command(cmd)); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	return errs
}

func inspectService(ctx context.Context, cfg Config) ServiceReport {
	if cfg.ServiceCommand == "" {
		return ServiceReport{Builtin: true, Command: "builtin"}
	}
	res := ServiceReport{Command: cfg.ServiceCommand}
	path, err := exec.LookPath(cfg.ServiceCommand)
	if err != nil {
		res.Error = fmt.Sprintf("%s not found: %v", cfg.ServiceCommand, err)
		return res
	}
	res.Path = path
	if version, err := runCommand(ctx, path, "--version"); err == nil {
		res.Version = strings.TrimSpace(version)
	}
	return res
}

// findDocuments lists stored documents relative to the workspace, skipping
// hidden directories.
func findDocuments(root string) []string {
	var docs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), server.DocumentExt) {
			if rel, err := filepath.Rel(root, path); err == nil {
				docs = append(docs, rel)
			}
		}
		return nil
	})
	return docs
}

// runCommand executes a short-lived command and returns stdout or a formatted
// error that includes stderr output.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(cctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), detail)
		}
		return "", err
	}
	return stdout.String(), nil
}

// Status collects the environment report together with live runtime details.
func (r *Runtime) Status(ctx context.Context) (EnvironmentReport, bool) {
	return ProbeEnvironment(ctx, r.Config), r.ServerRunning()
}
