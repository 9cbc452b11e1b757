// Package modpath maps watched file paths to the canonical module keys used
// inside a bundle.
//
// A canonical path has the form "@<namespace>/<relative/path.lua>" and only
// ever uses forward slashes, so the same file yields the same key on every
// platform and for every kind of event.
package modpath

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultNamespace is the logical root substituted for the watched directory.
const DefaultNamespace = "src"

// Prefix marks a canonical module path.
const Prefix = "@"

// Path is a canonical module path such as "@src/init.lua".
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// Namespace returns the namespace segment ("src" for "@src/init.lua").
func (p Path) Namespace() string {
	s := strings.TrimPrefix(string(p), Prefix)
	ns, _, _ := strings.Cut(s, "/")
	return ns
}

// Rel returns the part of the path below the namespace.
func (p Path) Rel() string {
	s := strings.TrimPrefix(string(p), Prefix)
	_, rel, _ := strings.Cut(s, "/")
	return rel
}

// Valid reports whether p is in canonical form.
func (p Path) Valid() bool {
	s := string(p)
	if !strings.HasPrefix(s, Prefix) || strings.Contains(s, `\`) {
		return false
	}
	return p.Namespace() != "" && p.Rel() != ""
}

// Canonicalize maps a raw watcher path to its module path.
//
// Separators in raw and root are normalized to "/", a leading "./" is dropped
// from both, and the root prefix of raw is replaced with namespace. Paths
// outside root keep their normalized form under the namespace.
func Canonicalize(raw, root, namespace string) Path {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	rel := normalize(raw)
	base := normalize(root)

	switch {
	case base == "." || base == "":
	case rel == base:
		rel = ""
	case strings.HasPrefix(rel, base+"/"):
		rel = strings.TrimPrefix(rel, base+"/")
	case base == "/":
		rel = strings.TrimPrefix(rel, "/")
	}

	if rel == "" || rel == "." {
		return Path(Prefix + namespace)
	}
	return Path(Prefix + namespace + "/" + rel)
}

// normalize converts native and Windows separators to "/" and cleans the path.
func normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if filepath.Separator != '/' {
		p = strings.ReplaceAll(p, string(filepath.Separator), "/")
	}
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}
