package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/luabundle/internal/modpath"
)

func get(s *Store, path modpath.Path) (Entry, bool) {
	for _, e := range s.Snapshot() {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

func paths(entries []Entry) []modpath.Path {
	out := make([]modpath.Path, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestStore_Put_LastWriteWins(t *testing.T) {
	// Given: a store with one module
	s := New()
	s.Put("@src/init.lua", []byte("return 1"))

	// When: the module changes twice
	s.Put("@src/init.lua", []byte("return 2"))
	s.Put("@src/init.lua", []byte("return 3"))

	// Then: only the last content is kept
	require.Equal(t, 1, s.Len())
	e, ok := get(s, "@src/init.lua")
	require.True(t, ok)
	assert.Equal(t, "return 3", e.Content)
	assert.Equal(t, KindText, e.Kind)
}

func TestStore_Remove_AbsentIsNoop(t *testing.T) {
	// Given: a store with one module
	s := New()
	s.Put("@src/init.lua", []byte("return 1"))

	// When: removing a path that was never added
	removed := s.Remove("@src/ghost.lua")

	// Then: nothing changes and no error is raised
	assert.False(t, removed)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Remove_Twice(t *testing.T) {
	s := New()
	s.Put("@src/a.lua", []byte("a"))

	assert.True(t, s.Remove("@src/a.lua"))
	assert.False(t, s.Remove("@src/a.lua"))
	assert.Equal(t, 0, s.Len())
}

func TestStore_Snapshot_InsertionOrder(t *testing.T) {
	// Given: modules added in a fixed order
	s := New()
	s.Put("@src/c.lua", []byte("c"))
	s.Put("@src/a.lua", []byte("a"))
	s.Put("@src/b.lua", []byte("b"))

	// When: one is overwritten and another removed then re-added
	s.Put("@src/c.lua", []byte("c2"))
	s.Remove("@src/a.lua")
	s.Put("@src/a.lua", []byte("a2"))

	// Then: overwrite keeps position, re-add moves to the end
	snap := s.Snapshot()
	assert.Equal(t, []modpath.Path{"@src/c.lua", "@src/b.lua", "@src/a.lua"}, paths(snap))
	assert.Equal(t, "c2", snap[0].Content)

	// And: repeated snapshots are identical
	assert.Equal(t, snap, s.Snapshot())
}

func TestStore_Snapshot_IsCopy(t *testing.T) {
	s := New()
	s.Put("@src/a.lua", []byte("a"))

	snap := s.Snapshot()
	snap[0].Content = "mutated"

	e, _ := get(s, "@src/a.lua")
	assert.Equal(t, "a", e.Content)
}

func TestStore_EventSequences(t *testing.T) {
	type op struct {
		remove  bool
		path    modpath.Path
		content string
	}

	tests := []struct {
		name     string
		ops      []op
		expected map[modpath.Path]string
	}{
		{
			name: "add change remove",
			ops: []op{
				{path: "@src/a.lua", content: "1"},
				{path: "@src/a.lua", content: "2"},
				{remove: true, path: "@src/a.lua"},
			},
			expected: map[modpath.Path]string{},
		},
		{
			name: "remove after remove",
			ops: []op{
				{path: "@src/a.lua", content: "1"},
				{path: "@src/b.lua", content: "2"},
				{remove: true, path: "@src/a.lua"},
				{remove: true, path: "@src/a.lua"},
			},
			expected: map[modpath.Path]string{"@src/b.lua": "2"},
		},
		{
			name: "remove then add again",
			ops: []op{
				{path: "@src/a.lua", content: "1"},
				{remove: true, path: "@src/a.lua"},
				{path: "@src/a.lua", content: "3"},
			},
			expected: map[modpath.Path]string{"@src/a.lua": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, o := range tt.ops {
				if o.remove {
					s.Remove(o.path)
				} else {
					s.Put(o.path, []byte(o.content))
				}
			}

			got := make(map[modpath.Path]string)
			for _, e := range s.Snapshot() {
				got[e.Path] = e.Content
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStore_Put_AnyBytesAreText(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"utf8", []byte("local x = 1\n")},
		{"empty", []byte("")},
		{"latin1", []byte("-- caf\xe9\nreturn \"r\xe9sum\xe9\"")},
		{"nul", []byte("return \"a\x00b\"")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Put("@src/m.lua", tt.content)

			e, ok := get(s, "@src/m.lua")
			require.True(t, ok)
			assert.True(t, e.IsText())
			assert.Equal(t, string(tt.content), e.Content)
		})
	}
}

func TestStore_PutEntry_KeepsKind(t *testing.T) {
	s := New()
	s.PutEntry(Entry{Path: "@src/missing.lua", Kind: KindMissing})

	e, ok := get(s, "@src/missing.lua")
	require.True(t, ok)
	assert.False(t, e.IsText())
	assert.Equal(t, "missing", e.Kind.String())
}
