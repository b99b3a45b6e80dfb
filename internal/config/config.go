// Package config handles configuration loading and defaults for schedcal.
// Configuration is loaded from XDG-compliant paths (typically ~/.config/schedcal/config.yaml).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"schedcal/internal/fsutil"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.schedcal)
	DataDir string `yaml:"data_dir,omitempty"`

	Log    LogConfig    `yaml:"log,omitempty"`
	Import ImportConfig `yaml:"import,omitempty"`
	Export ExportConfig `yaml:"export,omitempty"`
	Backup BackupConfig `yaml:"backup,omitempty"`

	// Theme customizes the terminal output
	Theme ThemeConfig `yaml:"theme,omitempty"`

	// Keys customizes the import review shortcuts
	Keys KeysConfig `yaml:"keys,omitempty"`
}

// LogConfig controls the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// ImportConfig defines import behaviour.
type ImportConfig struct {
	// MonthFirst reads ambiguous dates such as 03/04/2026 as month/day
	MonthFirst bool `yaml:"month_first,omitempty"`

	// Review shows the interactive review before merging an import
	Review bool `yaml:"review,omitempty"` // default: true

	// MaxOccurrences caps the activities expanded from one recurring event
	MaxOccurrences int `yaml:"max_occurrences,omitempty"` // default: 500
}

// ExportConfig defines export settings.
type ExportConfig struct {
	// Application is written to the JSON envelope
	Application string `yaml:"application,omitempty"`
}

// BackupConfig defines automatic snapshots.
type BackupConfig struct {
	// BeforeImport snapshots the state before every merge
	BeforeImport bool `yaml:"before_import,omitempty"` // default: true

	// Keep is the number of snapshots kept by automatic pruning
	Keep int `yaml:"keep,omitempty"` // default: 10
}

// ThemeConfig defines color settings.
type ThemeConfig struct {
	// Primary color for headings (hex, e.g., "#FF5733")
	Primary string `yaml:"primary,omitempty"`

	// Accent color for highlights (hex)
	Accent string `yaml:"accent,omitempty"`

	// Muted color for secondary text (hex)
	Muted string `yaml:"muted,omitempty"`

	// Warning color for row warnings (hex)
	Warning string `yaml:"warning,omitempty"`

	// Error color for row errors (hex)
	Error string `yaml:"error,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
// Examples: "y,enter", "n,esc", "j,down"
type KeysConfig struct {
	Merge   string `yaml:"merge,omitempty"`   // default: "y,enter"
	Discard string `yaml:"discard,omitempty"` // default: "n,esc,q"
	Up      string `yaml:"up,omitempty"`      // default: "k,up"
	Down    string `yaml:"down,omitempty"`    // default: "j,down"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Import: ImportConfig{
			MonthFirst:     false,
			Review:         true,
			MaxOccurrences: 500,
		},
		Export: ExportConfig{
			Application: "schedcal",
		},
		Backup: BackupConfig{
			BeforeImport: true,
			Keep:         10,
		},
		Theme: ThemeConfig{
			Primary: "#3B82F6", // Blue
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
			Warning: "#F59E0B", // Amber
			Error:   "#EF4444", // Red
		},
	}
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".schedcal"
	}
	return filepath.Join(home, ".schedcal")
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "schedcal")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "schedcal")
}

// Path returns the path to the config file, or "" when no home is known.
func Path() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from the default path, merging with defaults.
// If no config file exists, returns default configuration.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads configuration from path, merging with defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var doc yaml.Node
	_ = yaml.Unmarshal(data, &doc) // best-effort; fall back to conservative merge if this fails

	cfg.mergeFromYAML(&userCfg, &doc)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the CLI cannot act on.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Import.MaxOccurrences < 0 {
		return fmt.Errorf("import.max_occurrences must not be negative")
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative")
	}
	return nil
}

// SlogLevel maps log.level to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// mergeNonEmpty applies non-empty values from other to c.
// It intentionally does not touch booleans (those require presence-aware merging).
func (c *Config) mergeNonEmpty(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Import.MaxOccurrences > 0 {
		c.Import.MaxOccurrences = other.Import.MaxOccurrences
	}
	if other.Export.Application != "" {
		c.Export.Application = other.Export.Application
	}
	if other.Backup.Keep > 0 {
		c.Backup.Keep = other.Backup.Keep
	}

	setIfNonEmpty(&c.Theme.Primary, other.Theme.Primary)
	setIfNonEmpty(&c.Theme.Accent, other.Theme.Accent)
	setIfNonEmpty(&c.Theme.Muted, other.Theme.Muted)
	setIfNonEmpty(&c.Theme.Warning, other.Theme.Warning)
	setIfNonEmpty(&c.Theme.Error, other.Theme.Error)

	setIfNonEmpty(&c.Keys.Merge, other.Keys.Merge)
	setIfNonEmpty(&c.Keys.Discard, other.Keys.Discard)
	setIfNonEmpty(&c.Keys.Up, other.Keys.Up)
	setIfNonEmpty(&c.Keys.Down, other.Keys.Down)
}

func setIfNonEmpty(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)

	// Without a node tree booleans keep their defaults.
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	if yamlHasPath(doc, "import", "month_first") {
		c.Import.MonthFirst = other.Import.MonthFirst
	}
	if yamlHasPath(doc, "import", "review") {
		c.Import.Review = other.Import.Review
	}
	if yamlHasPath(doc, "backup", "before_import") {
		c.Backup.BeforeImport = other.Backup.BeforeImport
	}
	// keep: 0 disables pruning, so an explicit zero must win.
	if yamlHasPath(doc, "backup", "keep") {
		c.Backup.Keep = other.Backup.Keep
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return fsutil.WriteFileAtomic(path, data, 0600)
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	if c.DataDir == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return c.DataDir
	}
	if strings.HasPrefix(c.DataDir, "~/") || strings.HasPrefix(c.DataDir, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.DataDir[2:])
		}
	}
	return c.DataDir
}
