// Package config loads, validates and saves the filenest rule configuration.
//
// The configuration lives at ~/.config/filenest/config.yaml by default. YAML,
// JSON (the config.json shape produced by earlier releases) and TOML files are
// accepted; the format is chosen by file extension.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filenest/internal/errors"
	"filenest/internal/rules"
	"filenest/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config location.
const EnvConfigPath = "FILENEST_CONFIG"

// Config is the persisted rule configuration.
type Config struct {
	TargetPath        string                  `yaml:"target_path" toml:"target_path" json:"target_path"`                      // Directory organized when none is given
	Categories        Categories              `yaml:"categories" toml:"categories" json:"categories"`                         // Ordered category -> extensions mapping
	OthersFolder      string                  `yaml:"others_folder" toml:"others_folder" json:"others_folder"`                // Catch-all category
	DuplicateStrategy types.DuplicateStrategy `yaml:"duplicate_strategy" toml:"duplicate_strategy" json:"duplicate_strategy"` // rename, skip or overwrite
	Workers           int                     `yaml:"workers" toml:"workers" json:"workers"`                                  // Parallel file moves
	SkipHidden        *bool                   `yaml:"skip_hidden,omitempty" toml:"skip_hidden,omitempty" json:"skip_hidden,omitempty"`
	Exclude           []string                `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty"`                   // Glob patterns left untouched
	MaxFileSize       string                  `yaml:"max_file_size,omitempty" toml:"max_file_size,omitempty" json:"max_file_size,omitempty"` // Larger files are skipped, e.g. "500MB"
	Profile           string                  `yaml:"profile,omitempty" toml:"profile,omitempty" json:"profile,omitempty"`                   // Preset the categories came from
	LogFile           string                  `yaml:"log_file" toml:"log_file" json:"log_file"`                                              // Move log (pipe-separated lines)
	HistoryDB         string                  `yaml:"history_db" toml:"history_db" json:"history_db"`                                        // Session history used by undo
	RetentionDays     int                     `yaml:"retention_days" toml:"retention_days" json:"retention_days"`                            // Log cleanup horizon
	Watch             Watch                   `yaml:"watch" toml:"watch" json:"watch"`

	path string
}

// Watch holds watch-mode settings.
type Watch struct {
	Debounce string `yaml:"debounce" toml:"debounce" json:"debounce"` // Quiet period before a run, e.g. "2s"
	Interval string `yaml:"interval" toml:"interval" json:"interval"` // Optional periodic rescan, "0" disables
}

// DefaultConfigPath returns the config location, honoring FILENEST_CONFIG.
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return ExpandPath(p)
	}
	return ExpandPath(filepath.Join("~", ".config", "filenest", "config.yaml"))
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, errors.NewConfigError("cannot resolve config path", "", errors.ConfigNotFound, err)
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from path. A missing file yields the
// default configuration bound to path so a later Save creates it.
func LoadConfigFile(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, errors.NewConfigError("cannot resolve config path", path, errors.ConfigNotFound, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = expanded
			if err := cfg.normalize(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, errors.NewConfigError("error reading config file", expanded, errors.InvalidConfig, err)
	}

	cfg, err := Parse(data, formatFor(expanded))
	if err != nil {
		return nil, errors.NewConfigError("error parsing config file", expanded, errors.InvalidConfig, err)
	}
	cfg.path = expanded

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format identifies a configuration file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatTOML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Parse decodes data without applying defaults or validation.
// JSON is read by the YAML decoder so category order is preserved.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// SetPath rebinds the configuration to another file.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save writes the configuration to its bound path.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.NewConfigError("config has no file path", "", errors.InvalidConfig, nil)
	}
	return SaveConfig(c, c.path)
}

// SaveConfig validates cfg and writes it to path atomically, creating parent
// directories. The encoding follows the file extension.
func SaveConfig(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := cfg.Marshal(formatFor(path))
	if err != nil {
		return errors.NewConfigError("failed to marshal config", path, errors.InvalidConfig, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewFileError("failed to create config directory", dir, errors.FileCreateFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return errors.NewFileError("failed to write config file", path, errors.FileCreateFailed, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	return nil
}

// Marshal encodes the configuration in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(c)
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// RuleSet builds the extension lookup table for the organizer.
func (c *Config) RuleSet() *rules.RuleSet {
	return rules.New(c.Categories, c.OthersFolder)
}

// Exclusions compiles the exclude patterns.
func (c *Config) Exclusions() (*rules.Exclusions, error) {
	return rules.NewExclusions(c.Exclude)
}

// HideHidden reports whether dotfiles are left in place.
func (c *Config) HideHidden() bool {
	return c.SkipHidden == nil || *c.SkipHidden
}

// MaxFileSizeBytes returns the size limit in bytes; zero means no limit.
func (c *Config) MaxFileSizeBytes() int64 {
	n, err := parseSize(c.MaxFileSize)
	if err != nil {
		return 0
	}
	return n
}

// DebounceDuration returns the watch quiet period.
func (c *Config) DebounceDuration() time.Duration {
	d, err := parseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return defaultDebounce
	}
	return d
}

// IntervalDuration returns the periodic rescan interval; zero disables it.
func (c *Config) IntervalDuration() time.Duration {
	d, err := parseDuration(c.Watch.Interval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// OwnFiles lists absolute paths the organizer must never move: the config,
// the move log and its lock, and the history database with its sidecars.
func (c *Config) OwnFiles() []string {
	var files []string
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			files = append(files, abs)
		}
	}
	add(c.path)
	add(c.LogFile)
	if c.LogFile != "" {
		add(c.LogFile + ".lock")
	}
	if c.HistoryDB != "" {
		add(c.HistoryDB)
		add(c.HistoryDB + "-wal")
		add(c.HistoryDB + "-shm")
		add(c.HistoryDB + "-journal")
	}
	return files
}

func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}

// parseSize reads a human size such as "100MB" or "1.5GiB". Empty and "0"
// mean no limit.
func parseSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", value)
	}
	return int64(n), nil
}

// ExpandPath expands a leading "~" and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
