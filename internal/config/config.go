// Package config loads luabundle settings.
//
// Settings are applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/luabundle/config.yaml)
//  3. Project config (.luabundle.yaml in the working directory, or an explicit file)
//  4. Environment variables (LUABUNDLE_*)
//
// Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
	"github.com/Aman-CERP/luabundle/internal/modpath"
)

const (
	// FileName is the project configuration file.
	FileName = ".luabundle.yaml"

	// DefaultMaxDepth is the watch depth used when max_depth is unset.
	DefaultMaxDepth = 5
)

// Config represents the complete luabundle configuration.
type Config struct {
	Version   int           `yaml:"version"`
	Entry     string        `yaml:"entry"`
	Namespace string        `yaml:"namespace"`
	Debounce  string        `yaml:"debounce"`
	Watch     WatchConfig   `yaml:"watch"`
	Output    OutputConfig  `yaml:"output"`
	Logging   LoggingConfig `yaml:"logging"`
}

// WatchConfig configures which files are tracked and how.
type WatchConfig struct {
	// IgnorePattern is a regex of paths never tracked.
	IgnorePattern string `yaml:"ignore_pattern"`
	// Ignore holds extra gitignore-style patterns.
	Ignore []string `yaml:"ignore"`
	// MaxDepth bounds how many directory levels below the root are watched;
	// 0 means root files only. Nil when unset so that an explicit 0 survives
	// merging.
	MaxDepth *int `yaml:"max_depth"`
	// FollowSymlinks is nil when unset so that an explicit false survives
	// merging.
	FollowSymlinks *bool `yaml:"follow_symlinks"`
	// AtomicWindow is the editor save coalescing window; "-1ms" disables it.
	AtomicWindow string `yaml:"atomic_window"`
	PollInterval string `yaml:"poll_interval"`
	ForcePolling bool   `yaml:"force_polling"`
}

// OutputConfig configures the bundle writer.
type OutputConfig struct {
	LockTimeout string `yaml:"lock_timeout"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	follow := true
	depth := DefaultMaxDepth
	return &Config{
		Version:   1,
		Entry:     "@src/init.lua",
		Namespace: modpath.DefaultNamespace,
		Debounce:  "500ms",
		Watch: WatchConfig{
			IgnorePattern:  `\.txt|\.git`,
			MaxDepth:       &depth,
			FollowSymlinks: &follow,
			AtomicWindow:   "100ms",
			PollInterval:   "1s",
		},
		Output: OutputConfig{
			LockTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/luabundle/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/luabundle/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "luabundle", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "luabundle", "config.yaml")
	}
	return filepath.Join(home, ".config", "luabundle", "config.yaml")
}

// Load loads configuration for the project in dir. If file is not empty it
// replaces dir/.luabundle.yaml and must exist.
func Load(dir, file string) (*Config, error) {
	cfg := NewConfig()

	userPath := GetUserConfigPath()
	if fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if file != "" {
		if err := cfg.loadYAML(file); err != nil {
			return nil, err
		}
	} else if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile attempts to load configuration from .luabundle.yaml or .luabundle.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, FileName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, strings.TrimSuffix(FileName, ".yaml")+".yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return invalid(fmt.Sprintf("failed to read config file %s: %v", path, err), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return invalid(fmt.Sprintf("failed to parse config file %s: %v", path, err), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Entry != "" {
		c.Entry = other.Entry
	}
	if other.Namespace != "" {
		c.Namespace = other.Namespace
	}
	if other.Debounce != "" {
		c.Debounce = other.Debounce
	}

	if other.Watch.IgnorePattern != "" {
		c.Watch.IgnorePattern = other.Watch.IgnorePattern
	}
	c.Watch.Ignore = append(c.Watch.Ignore, other.Watch.Ignore...)
	if other.Watch.MaxDepth != nil {
		depth := *other.Watch.MaxDepth
		c.Watch.MaxDepth = &depth
	}
	if other.Watch.FollowSymlinks != nil {
		follow := *other.Watch.FollowSymlinks
		c.Watch.FollowSymlinks = &follow
	}
	if other.Watch.AtomicWindow != "" {
		c.Watch.AtomicWindow = other.Watch.AtomicWindow
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}
	if other.Watch.ForcePolling {
		c.Watch.ForcePolling = true
	}

	if other.Output.LockTimeout != "" {
		c.Output.LockTimeout = other.Output.LockTimeout
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies LUABUNDLE_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LUABUNDLE_ENTRY"); v != "" {
		c.Entry = v
	}
	if v := os.Getenv("LUABUNDLE_NAMESPACE"); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv("LUABUNDLE_DEBOUNCE"); v != "" {
		c.Debounce = v
	}
	if v := os.Getenv("LUABUNDLE_IGNORE_PATTERN"); v != "" {
		c.Watch.IgnorePattern = v
	}
	if v := os.Getenv("LUABUNDLE_MAX_DEPTH"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d >= 0 {
			c.Watch.MaxDepth = &d
		}
	}
	if v := os.Getenv("LUABUNDLE_FOLLOW_SYMLINKS"); v != "" {
		follow := parseBool(v)
		c.Watch.FollowSymlinks = &follow
	}
	if v := os.Getenv("LUABUNDLE_FORCE_POLLING"); v != "" {
		c.Watch.ForcePolling = parseBool(v)
	}
	if v := os.Getenv("LUABUNDLE_POLL_INTERVAL"); v != "" {
		c.Watch.PollInterval = v
	}
	if v := os.Getenv("LUABUNDLE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LUABUNDLE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

func parseBool(s string) bool {
	return strings.ToLower(s) == "true" || s == "1"
}

// Validate checks the configuration and returns an ERR_102_CONFIG_INVALID
// error describing the first problem found.
func (c *Config) Validate() error {
	if !modpath.Path(c.Entry).Valid() {
		return invalid(fmt.Sprintf("entry must look like @<namespace>/<path>, got %q", c.Entry), nil)
	}
	if c.Namespace == "" || strings.ContainsAny(c.Namespace, `/\@`) {
		return invalid(fmt.Sprintf("namespace must be a single path segment, got %q", c.Namespace), nil)
	}

	for name, value := range map[string]string{
		"debounce":            c.Debounce,
		"watch.poll_interval": c.Watch.PollInterval,
		"output.lock_timeout": c.Output.LockTimeout,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return invalid(fmt.Sprintf("%s must be a duration, got %q", name, value), err)
		}
		if d < 0 {
			return invalid(fmt.Sprintf("%s must be non-negative, got %s", name, value), nil)
		}
	}
	if _, err := time.ParseDuration(c.Watch.AtomicWindow); err != nil {
		return invalid(fmt.Sprintf("watch.atomic_window must be a duration, got %q", c.Watch.AtomicWindow), err)
	}

	if _, err := regexp.Compile(c.Watch.IgnorePattern); err != nil {
		return invalid(fmt.Sprintf("watch.ignore_pattern is not a valid regex: %v", err), err)
	}
	if c.Watch.MaxDepth != nil && *c.Watch.MaxDepth < 0 {
		return invalid(fmt.Sprintf("watch.max_depth must be non-negative, got %d", *c.Watch.MaxDepth), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return invalid("logging.max_size_mb and logging.max_files must be non-negative", nil)
	}

	return nil
}

// DebounceDuration returns the rebuild quiet period.
func (c *Config) DebounceDuration() time.Duration {
	return mustDuration(c.Debounce)
}

// AtomicWindowDuration returns the editor save coalescing window.
func (c *Config) AtomicWindowDuration() time.Duration {
	return mustDuration(c.Watch.AtomicWindow)
}

// PollIntervalDuration returns the polling fallback interval.
func (c *Config) PollIntervalDuration() time.Duration {
	return mustDuration(c.Watch.PollInterval)
}

// LockTimeoutDuration returns how long a write waits for the output lock.
func (c *Config) LockTimeoutDuration() time.Duration {
	return mustDuration(c.Output.LockTimeout)
}

// WatchMaxDepth returns the directory depth limit for the watcher.
func (c *Config) WatchMaxDepth() int {
	if c.Watch.MaxDepth == nil {
		return DefaultMaxDepth
	}
	return *c.Watch.MaxDepth
}

// FollowsSymlinks reports whether symlinks are followed.
func (c *Config) FollowsSymlinks() bool {
	return c.Watch.FollowSymlinks == nil || *c.Watch.FollowSymlinks
}

// mustDuration parses a duration already checked by Validate.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func invalid(msg string, cause error) error {
	return lberrors.New(lberrors.ErrCodeConfigInvalid, msg, cause).
		WithSuggestion("check " + FileName + " and LUABUNDLE_* environment variables")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
