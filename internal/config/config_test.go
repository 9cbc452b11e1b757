package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
)

// isolate points the user config at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "@src/init.lua", cfg.Entry)
	assert.Equal(t, "src", cfg.Namespace)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, `\.txt|\.git`, cfg.Watch.IgnorePattern)
	assert.Equal(t, 5, cfg.WatchMaxDepth())
	assert.True(t, cfg.FollowsSymlinks())
	assert.Equal(t, 100*time.Millisecond, cfg.AtomicWindowDuration())
	assert.Equal(t, time.Second, cfg.PollIntervalDuration())
	assert.Equal(t, 10*time.Second, cfg.LockTimeoutDuration())
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles_UsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir(), "")

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Entry, cfg.Entry)
}

func TestLoad_ProjectFile_Merges(t *testing.T) {
	// Given: a project config overriding some values
	isolate(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, FileName), `
entry: "@game/main.lua"
namespace: game
debounce: 250ms
watch:
  ignore:
    - "*.bak"
  follow_symlinks: false
  max_depth: 2
`)

	// When: loading
	cfg, err := Load(dir, "")

	// Then: file values win and unset values keep their defaults
	require.NoError(t, err)
	assert.Equal(t, "@game/main.lua", cfg.Entry)
	assert.Equal(t, "game", cfg.Namespace)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, []string{"*.bak"}, cfg.Watch.Ignore)
	assert.False(t, cfg.FollowsSymlinks())
	assert.Equal(t, 2, cfg.WatchMaxDepth())
	assert.Equal(t, `\.txt|\.git`, cfg.Watch.IgnorePattern)
}

func TestLoad_ExplicitZeroDepthSurvives(t *testing.T) {
	// Given: a project config limiting the watch to root files
	isolate(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, FileName), `
watch:
  max_depth: 0
`)

	// When: loading
	cfg, err := Load(dir, "")

	// Then: the zero is kept rather than replaced by the default
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.WatchMaxDepth())
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".luabundle.yml"), "namespace: lib\nentry: \"@lib/init.lua\"\n")

	cfg, err := Load(dir, "")

	require.NoError(t, err)
	assert.Equal(t, "lib", cfg.Namespace)
}

func TestLoad_UserConfigThenProject(t *testing.T) {
	// Given: a user config and a project config
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeConfig(t, filepath.Join(xdg, "luabundle", "config.yaml"), "debounce: 1s\nlogging:\n  level: debug\n")
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, FileName), "debounce: 2s\n")

	cfg, err := Load(dir, "")

	// Then: project beats user, user beats defaults
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.DebounceDuration())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "custom.yaml")
	writeConfig(t, file, "debounce: 50ms\n")

	cfg, err := Load(t.TempDir(), file)

	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.DebounceDuration())
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, lberrors.ErrConfigInvalid))
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, FileName), "debounce: [unclosed\n")

	_, err := Load(dir, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, lberrors.ErrConfigInvalid))
}

func TestLoad_EnvOverrides(t *testing.T) {
	// Given: a project file and environment overrides
	isolate(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, FileName), "debounce: 2s\n")
	t.Setenv("LUABUNDLE_DEBOUNCE", "10ms")
	t.Setenv("LUABUNDLE_NAMESPACE", "app")
	t.Setenv("LUABUNDLE_ENTRY", "@app/init.lua")
	t.Setenv("LUABUNDLE_MAX_DEPTH", "3")
	t.Setenv("LUABUNDLE_FORCE_POLLING", "true")
	t.Setenv("LUABUNDLE_FOLLOW_SYMLINKS", "0")
	t.Setenv("LUABUNDLE_LOG_LEVEL", "warn")

	cfg, err := Load(dir, "")

	// Then: the environment wins
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, "app", cfg.Namespace)
	assert.Equal(t, "@app/init.lua", cfg.Entry)
	assert.Equal(t, 3, cfg.WatchMaxDepth())
	assert.True(t, cfg.Watch.ForcePolling)
	assert.False(t, cfg.FollowsSymlinks())
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"entry without prefix", func(c *Config) { c.Entry = "src/init.lua" }},
		{"namespace with slash", func(c *Config) { c.Namespace = "a/b" }},
		{"empty namespace", func(c *Config) { c.Namespace = "" }},
		{"bad debounce", func(c *Config) { c.Debounce = "soon" }},
		{"negative debounce", func(c *Config) { c.Debounce = "-1s" }},
		{"bad atomic window", func(c *Config) { c.Watch.AtomicWindow = "x" }},
		{"bad regex", func(c *Config) { c.Watch.IgnorePattern = "([" }},
		{"negative depth", func(c *Config) { d := -1; c.Watch.MaxDepth = &d }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, lberrors.ErrCodeConfigInvalid, lberrors.GetCode(err))
		})
	}
}

func TestValidate_NegativeAtomicWindowAllowed(t *testing.T) {
	cfg := NewConfig()
	cfg.Watch.AtomicWindow = "-1ms"
	require.NoError(t, cfg.Validate())
}

func TestGetUserConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "luabundle", "config.yaml"), GetUserConfigPath())
}
