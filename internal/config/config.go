// Package config provides configuration loading for ScoutMCP.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Project config (.scoutmcp.yaml in the working directory)
//  3. Environment variables (SCOUTMCP_*)
//
// The workspace root itself comes from the WORKSPACE_PATH environment
// variable, matching how MCP clients pass per-project settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	scouterr "github.com/scoutmcp/scoutmcp/internal/errors"
)

// DefaultMaxFileSize is the default maximum file size to index (1MiB).
const DefaultMaxFileSize int64 = 1024 * 1024

// DefaultCheckInterval is the default modification-check interval.
const DefaultCheckInterval = 5 * time.Minute

// MinCheckInterval is the lowest permissible modification-check interval.
const MinCheckInterval = time.Minute

// Config represents the complete ScoutMCP configuration.
type Config struct {
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// IndexingConfig configures which files are indexed and how often the
// index is reconciled with the filesystem.
type IndexingConfig struct {
	// MaxFileSize is the largest file, in bytes, that will be indexed.
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`

	// CheckInterval is how often a sync pass may run per collection,
	// as a duration string (e.g. "5m"). See Interval for the parsed value.
	CheckInterval string `yaml:"check_interval" json:"check_interval"`

	// AllowedExtensions is the extension allowlist (lowercased, with dot).
	AllowedExtensions []string `yaml:"allowed_extensions" json:"allowed_extensions"`

	// IgnorePatterns are path patterns excluded from indexing.
	IgnorePatterns []string `yaml:"ignore_patterns" json:"ignore_patterns"`
}

// StoreConfig configures the persistent chunk store.
type StoreConfig struct {
	// DataDir is the directory holding the store database and lock file.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Metric is the similarity metric for vector search ("cosine" or "l2").
	Metric string `yaml:"metric" json:"metric"`

	// TopK is the number of results returned per query.
	TopK int `yaml:"top_k" json:"top_k"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFile   string `yaml:"log_file" json:"log_file"`
}

// defaultAllowedExtensions is the allowlist of safe file extensions to index.
var defaultAllowedExtensions = []string{
	// Programming languages
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".cpp", ".c", ".h", ".hpp",
	".go", ".rs", ".rb", ".php", ".swift", ".kt", ".scala", ".cs", ".fs",
	".sh", ".bash", ".zsh", ".fish", ".ps1", ".bat", ".cmd",
	// Web technologies
	".html", ".htm", ".css", ".scss", ".sass", ".less",
	// Data formats
	".json", ".yaml", ".yml", ".toml", ".xml", ".csv", ".tsv",
	// Documentation
	".md", ".rst", ".txt", ".adoc",
	// Configuration
	".ini", ".conf", ".cfg", ".env.example", ".gitignore", ".editorconfig",
}

// defaultIgnorePatterns excludes dependency trees, VCS internals, build
// output, caches, and logs.
var defaultIgnorePatterns = []string{
	// Virtual environments
	"venv", ".venv", "env", ".env", "virtualenv",
	// Package managers
	"node_modules", "__pycache__", ".pytest_cache",
	// Version control
	".git", ".svn", ".hg",
	// Build artifacts
	"build", "dist", "target", ".next", ".nuxt",
	// IDE/editor files
	".vscode", ".idea", "*.swp", "*.swo",
	// Cache directories
	"cache", ".cache", ".npm", ".yarn",
	// Static files
	"staticfiles", "static/admin", "collectstatic",
	// Logs
	"*.log", "logs",
	// Temporary files
	"tmp", "temp", ".tmp",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Indexing: IndexingConfig{
			MaxFileSize:       DefaultMaxFileSize,
			CheckInterval:     DefaultCheckInterval.String(),
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			IgnorePatterns:    append([]string(nil), defaultIgnorePatterns...),
		},
		Store: StoreConfig{
			DataDir: defaultDataDir(),
			Metric:  "cosine",
			TopK:    5,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// defaultDataDir returns the default store location.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".scoutmcp")
	}
	return filepath.Join(home, ".scoutmcp")
}

// Load loads configuration from the given directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, scouterr.ConfigError("invalid configuration", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .scoutmcp.yaml or .scoutmcp.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".scoutmcp.yaml", ".scoutmcp.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}

		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}

		c.mergeWith(&parsed)
		return nil
	}

	// No config file is fine, defaults apply.
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Indexing.MaxFileSize != 0 {
		c.Indexing.MaxFileSize = other.Indexing.MaxFileSize
	}
	if other.Indexing.CheckInterval != "" {
		c.Indexing.CheckInterval = other.Indexing.CheckInterval
	}
	if len(other.Indexing.AllowedExtensions) > 0 {
		c.Indexing.AllowedExtensions = other.Indexing.AllowedExtensions
	}
	if len(other.Indexing.IgnorePatterns) > 0 {
		// Merge with defaults rather than replace
		c.Indexing.IgnorePatterns = append(c.Indexing.IgnorePatterns, other.Indexing.IgnorePatterns...)
	}

	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.Metric != "" {
		c.Store.Metric = other.Store.Metric
	}
	if other.Store.TopK != 0 {
		c.Store.TopK = other.Store.TopK
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.LogFile != "" {
		c.Server.LogFile = other.Server.LogFile
	}
}

// applyEnvOverrides applies SCOUTMCP_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCOUTMCP_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("SCOUTMCP_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SCOUTMCP_LOG_FILE"); v != "" {
		c.Server.LogFile = v
	}
	if v := os.Getenv("SCOUTMCP_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Indexing.MaxFileSize = n
		}
	}
	if v := os.Getenv("SCOUTMCP_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Indexing.CheckInterval = d.String()
		}
	}
	if v := os.Getenv("SCOUTMCP_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Store.TopK = n
		}
	}
}

// Validate checks the configuration for invalid values and normalizes
// extension spellings (lowercased, leading dot).
func (c *Config) Validate() error {
	if c.Indexing.MaxFileSize <= 0 {
		return fmt.Errorf("indexing.max_file_size must be positive, got %d", c.Indexing.MaxFileSize)
	}
	interval, err := time.ParseDuration(c.Indexing.CheckInterval)
	if err != nil {
		return fmt.Errorf("indexing.check_interval is not a valid duration: %q", c.Indexing.CheckInterval)
	}
	if interval < MinCheckInterval {
		return fmt.Errorf("indexing.check_interval must be at least %s, got %s",
			MinCheckInterval, interval)
	}
	if c.Store.TopK <= 0 {
		return fmt.Errorf("store.top_k must be positive, got %d", c.Store.TopK)
	}
	switch c.Store.Metric {
	case "cosine", "l2":
	default:
		return fmt.Errorf("store.metric must be cosine or l2, got %q", c.Store.Metric)
	}

	normalized := make([]string, 0, len(c.Indexing.AllowedExtensions))
	for _, ext := range c.Indexing.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Indexing.AllowedExtensions = normalized

	return nil
}

// Interval returns the parsed modification-check interval. Validate has
// already established that the string parses; a zero config falls back to
// the default.
func (c *IndexingConfig) Interval() time.Duration {
	d, err := time.ParseDuration(c.CheckInterval)
	if err != nil || d <= 0 {
		return DefaultCheckInterval
	}
	return d
}

// WorkspacePath reads and validates the workspace root from the
// WORKSPACE_PATH environment variable. The returned path is absolute.
// Absence or a non-directory path is a fatal configuration error.
func WorkspacePath() (string, error) {
	raw := os.Getenv("WORKSPACE_PATH")
	if raw == "" {
		return "", scouterr.New(scouterr.ErrCodeWorkspaceNotSet,
			"WORKSPACE_PATH environment variable is required but not set", nil)
	}
	return ValidateWorkspace(raw)
}

// ValidateWorkspace checks that path exists and is a directory, returning
// the absolute form.
func ValidateWorkspace(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", scouterr.ConfigError(fmt.Sprintf("resolve workspace path %s", path), err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", scouterr.New(scouterr.ErrCodeWorkspaceNotADir,
			fmt.Sprintf("workspace directory does not exist: %s", path), err)
	}
	if !info.IsDir() {
		return "", scouterr.Newf(scouterr.ErrCodeWorkspaceNotADir,
			"workspace path is not a directory: %s", path)
	}

	return abs, nil
}
