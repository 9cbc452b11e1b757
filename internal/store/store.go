// Package store holds the in-memory mirror of every watched module.
//
// Entries are kept in insertion order: the first Put of a path fixes its
// position, later Puts overwrite the content in place, and a Remove followed
// by a Put moves the entry to the end. Snapshot always returns entries in
// that order, so identical store states serialize to identical bundles.
//
// A Store is not safe for concurrent use. It is owned by the bundler event
// loop, which both mutates it and reads it for rebuilds.
package store

import (
	"github.com/Aman-CERP/luabundle/internal/modpath"
)

// Kind tags what an entry's content holds.
type Kind int

const (
	// KindText is source read from disk, the only kind that can be bundled.
	// Bytes are kept as read; any encoding is accepted.
	KindText Kind = iota
	// KindMissing marks an entry whose content was never provided.
	KindMissing
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Entry is one module in the store.
type Entry struct {
	Path    modpath.Path
	Kind    Kind
	Content string
}

// IsText reports whether the entry can be bundled.
func (e Entry) IsText() bool {
	return e.Kind == KindText
}

// Store maps module paths to their current content.
type Store struct {
	index   map[modpath.Path]int
	entries []Entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		index: make(map[modpath.Path]int),
	}
}

// Put stores content under path as text, replacing any previous entry.
func (s *Store) Put(path modpath.Path, content []byte) {
	s.PutEntry(Entry{
		Path:    path,
		Kind:    KindText,
		Content: string(content),
	})
}

// PutEntry stores e as is, replacing any previous entry for e.Path.
func (s *Store) PutEntry(e Entry) {
	if i, ok := s.index[e.Path]; ok {
		s.entries[i] = e
		return
	}
	s.index[e.Path] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Remove deletes the entry for path. Removing an absent path is a no-op.
// Returns true if an entry was deleted.
func (s *Store) Remove(path modpath.Path) bool {
	i, ok := s.index[path]
	if !ok {
		return false
	}

	delete(s.index, path)
	copy(s.entries[i:], s.entries[i+1:])
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]

	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].Path] = j
	}
	return true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Snapshot returns a copy of all entries in insertion order.
func (s *Store) Snapshot() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
