package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_DefaultPattern(t *testing.T) {
	m, err := New(DefaultPattern)
	require.NoError(t, err)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"init.lua", false, false},
		{"engine/node.lua", false, false},
		{"notes.txt", false, true},
		{".git", true, true},
		{".git/HEAD", false, true},
		{"lib/.gitkeep", false, true},
		{".", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_InvalidRegex(t *testing.T) {
	_, err := New("([")
	require.Error(t, err)
}

func TestMatcher_EmptyRegexDisabled(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	assert.False(t, m.Match("notes.txt", false))
}

func TestMatcher_Patterns(t *testing.T) {
	m, err := New("",
		"# comment",
		"",
		"*.bak",
		"/vendor",
		"build/",
		"docs/**/*.md",
		"*.tmp",
		"!keep.tmp",
	)
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{"glob at root", "a.bak", false, true},
		{"glob nested", "lib/deep/a.bak", false, true},
		{"anchored at root", "vendor/x.lua", false, true},
		{"anchored does not match nested", "lib/vendor/x.lua", false, false},
		{"dir only matches dir", "build", true, true},
		{"dir only ignores children", "build/out.lua", false, true},
		{"dir only skips file", "lib/build", false, false},
		{"double star zero segments", "docs/readme.md", false, true},
		{"double star many segments", "docs/a/b/readme.md", false, true},
		{"negation re-includes", "keep.tmp", false, false},
		{"negation leaves others", "drop.tmp", false, true},
		{"plain source", "src/init.lua", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_NegationDoesNotOverrideRegex(t *testing.T) {
	// Given: the default regex and a negation for a .txt file
	m, err := New(DefaultPattern, "*.md", "!README.md", "!keep.txt")
	require.NoError(t, err)

	// Then: negation re-includes what a pattern excluded but not what the regex did
	assert.False(t, m.Match("README.md", false))
	assert.True(t, m.Match("CHANGES.md", false))
	assert.True(t, m.Match("keep.txt", false))
}

func TestMatcher_WindowsSeparators(t *testing.T) {
	m, err := New("", "build/")
	require.NoError(t, err)
	assert.True(t, m.Match(`build\out.lua`, false))
}

func TestMatcher_AddFromFile(t *testing.T) {
	// Given: an ignore file with two patterns
	dir := t.TempDir()
	file := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(file, []byte("# generated\n*.gen.lua\nfixtures/\n"), 0o644))

	m, err := New(DefaultPattern)
	require.NoError(t, err)

	// When: loading it
	require.NoError(t, m.AddFromFile(file))

	// Then: both patterns apply alongside the default regex
	assert.True(t, m.Match("api.gen.lua", false))
	assert.True(t, m.Match("fixtures/a.lua", false))
	assert.True(t, m.Match("todo.txt", false))
	assert.False(t, m.Match("api.lua", false))
}

func TestMatcher_AddFromFile_Missing(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)

	err = m.AddFromFile(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, os.IsNotExist(err))
}
