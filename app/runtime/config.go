package runtime

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Journal backends.
const (
	JournalSQLite = "sqlite"
	JournalFile   = "file"
	JournalNone   = "none"
)

// Config captures every knob shared by the structedit CLI, the TUI, and the
// reference service.
type Config struct {
	Workspace   string
	ConfigPath  string
	LogPath     string
	JournalPath string
	// JournalBackend is one of sqlite, file, or none.
	JournalBackend string
	// ServiceCommand launches an external language service. When empty the
	// builtin service runs in-process over the workspace.
	ServiceCommand string
	ServiceArgs    []string
	APIAddr        string
	// Quiet keeps the logger off stdout, which the TUI owns.
	Quiet bool
}

// DefaultConfig infers defaults from the current working directory. Errors
// from os.Getwd are ignored so callers can override manually.
func DefaultConfig() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		Workspace:      cwd,
		ConfigPath:     filepath.Join(cwd, ".structedit", "config.yaml"),
		LogPath:        filepath.Join(cwd, ".structedit", "structedit.log"),
		JournalPath:    filepath.Join(cwd, ".structedit", "journal.db"),
		JournalBackend: JournalSQLite,
		APIAddr:        ":8080",
	}
}

// Normalize makes every filesystem path absolute and fills missing defaults.
func (c *Config) Normalize() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	absWorkspace, err := filepath.Abs(c.Workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	c.Workspace = absWorkspace
	c.ConfigPath = c.within(c.ConfigPath, "config.yaml")
	c.LogPath = c.within(c.LogPath, "structedit.log")
	switch c.JournalBackend {
	case "":
		c.JournalBackend = JournalSQLite
	case JournalSQLite, JournalFile, JournalNone:
	default:
		return fmt.Errorf("unknown journal backend %q", c.JournalBackend)
	}
	journalDefault := "journal.db"
	if c.JournalBackend == JournalFile {
		journalDefault = "journal"
	}
	c.JournalPath = c.within(c.JournalPath, journalDefault)
	if c.APIAddr == "" {
		c.APIAddr = ":8080"
	}
	return nil
}

func (c *Config) within(path, fallback string) string {
	if path == "" {
		return filepath.Join(c.Workspace, ".structedit", fallback)
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(c.Workspace, path)
	}
	return path
}

// Merge overlays persisted workspace settings onto c. A service command given
// on c is kept.
func (c *Config) Merge(ws WorkspaceConfig) {
	if ws.Service.Command != "" && c.ServiceCommand == "" {
		c.ServiceCommand = ws.Service.Command
		c.ServiceArgs = append([]string(nil), ws.Service.Args...)
	}
	if ws.Journal.Backend != "" {
		c.JournalBackend = ws.Journal.Backend
	}
	if ws.Journal.Path != "" {
		c.JournalPath = ws.Journal.Path
	}
	if ws.API.Addr != "" {
		c.APIAddr = ws.API.Addr
	}
}

// ServiceSettings selects the language service process.
type ServiceSettings struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// JournalSettings selects where edit history is kept.
type JournalSettings struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// APISettings configures the HTTP document API.
type APISettings struct {
	Addr string `yaml:"addr,omitempty"`
}

// WorkspaceConfig is the persisted per-workspace configuration.
type WorkspaceConfig struct {
	Service ServiceSettings `yaml:"service,omitempty"`
	Journal JournalSettings `yaml:"journal,omitempty"`
	API     APISettings     `yaml:"api,omitempty"`
	// Keys overrides key bindings per mode: keys.view.x: delete.
	Keys        map[string]map[string]string `yaml:"keys,omitempty"`
	LastUpdated int64                        `yaml:"last_updated,omitempty"`
}

// LoadWorkspaceConfig reads the workspace configuration from disk.
func LoadWorkspaceConfig(path string) (WorkspaceConfig, error) {
	if path == "" {
		return WorkspaceConfig{}, fmt.Errorf("config path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WorkspaceConfig{}, err
	}
	var cfg WorkspaceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WorkspaceConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveWorkspaceConfig persists the workspace configuration.
func SaveWorkspaceConfig(path string, cfg WorkspaceConfig) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
