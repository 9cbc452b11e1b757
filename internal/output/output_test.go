package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_EventLines(t *testing.T) {
	// Given: a plain writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: reporting each kind of event
	w.Added("src/init.lua")
	w.Changed("src/init.lua")
	w.Removed("src/util.lua")

	// Then: lines follow "<path> has been <verb>"
	assert.Equal(t,
		"src/init.lua has been added\n"+
			"src/init.lua has been changed\n"+
			"src/util.lua has been removed\n",
		buf.String())
}

func TestWriter_Ready(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Ready()
	assert.Equal(t, "Initial scan complete. Ready for changes\n", buf.String())
}

func TestWriter_Built(t *testing.T) {
	tests := []struct {
		name    string
		written bool
		want    string
	}{
		{"written", true, "Bundled out.lua (3 modules, 120 bytes, 5ms)\n"},
		{"unchanged", false, "out.lua is up to date\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			New(buf).Built("out.lua", 3, 120, 5*time.Millisecond, tt.written)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_ErrorAndWarning(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Errorf("Watcher error: %s", "boom")
	w.Warningf("skipped %d", 2)

	assert.Equal(t, "Watcher error: boom\nskipped 2\n", buf.String())
}

func TestNewColor_PlainWhenDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	NewColor(buf, false).Added("a.lua")
	assert.Equal(t, "a.lua has been added\n", buf.String())
}

func TestShouldUseColor(t *testing.T) {
	// Given: a regular file, never a terminal
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.False(t, ShouldUseColor(f, false))
	assert.False(t, ShouldUseColor(nil, false))
	assert.False(t, ShouldUseColor(os.Stdout, true))
}

func TestShouldUseColor_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ShouldUseColor(os.Stdout, false))
}
