package watcher

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/luabundle/internal/ignore"
)

// walker enumerates tracked directories and files below root, honouring the
// ignore rules, the depth bound and the symlink policy.
type walker struct {
	root           string
	matcher        *ignore.Matcher
	maxDepth       int
	followSymlinks bool
}

// visitor receives walk results. Entries in one directory arrive sorted by
// name.
type visitor struct {
	dir  func(rel, abs string)
	file func(rel string, info fs.FileInfo)
	err  func(err error)
}

// depthOf returns the directory depth of rel ("" is the root, depth 0).
func depthOf(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// allowsDir reports whether a directory at rel is within the depth bound.
func (w *walker) allowsDir(rel string) bool {
	return depthOf(rel) <= w.maxDepth
}

// allowsFile reports whether a file at rel sits in a watched directory.
func (w *walker) allowsFile(rel string) bool {
	return depthOf(path.Dir(rel)) <= w.maxDepth
}

// walk visits the tree rooted at rel.
func (w *walker) walk(rel string, v visitor) {
	abs := w.root
	if rel != "" {
		abs = filepath.Join(w.root, filepath.FromSlash(rel))
	}
	w.walkDir(abs, rel, make(map[string]bool), v)
}

func (w *walker) walkDir(abs, rel string, visited map[string]bool, v visitor) {
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		if visited[real] {
			return
		}
		visited[real] = true
	}

	if v.dir != nil {
		v.dir(rel, abs)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if v.err != nil {
			v.err(err)
		}
		return
	}

	for _, e := range entries {
		childAbs := filepath.Join(abs, e.Name())
		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}

		var info fs.FileInfo
		if e.Type()&fs.ModeSymlink != 0 {
			if !w.followSymlinks {
				continue
			}
			info, err = os.Stat(childAbs)
		} else {
			info, err = e.Info()
		}
		if err != nil {
			if v.err != nil {
				v.err(err)
			}
			continue
		}

		if w.matcher.Match(childRel, info.IsDir()) {
			continue
		}

		switch {
		case info.IsDir():
			if w.allowsDir(childRel) {
				w.walkDir(childAbs, childRel, visited, v)
			}
		case info.Mode().IsRegular():
			if v.file != nil {
				v.file(childRel, info)
			}
		}
	}
}
