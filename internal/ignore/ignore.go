// Package ignore decides which watched paths are never tracked.
//
// A Matcher combines the fixed exclusion regex (temporary and VCS files) with
// optional gitignore-style patterns:
//
//	*.bak        any file named *.bak at any depth
//	/vendor      vendor at the root only
//	build/       directories named build and everything below them
//	docs/**/*.md anchored pattern with a multi-segment wildcard
//	!keep.tmp    re-include a path excluded by an earlier pattern
//
// Negation only undoes earlier patterns. A path matching the exclusion regex
// stays ignored. Paths are relative to the watch root and use forward slashes.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
)

// DefaultPattern excludes temp files and VCS metadata.
const DefaultPattern = `\.txt|\.git`

// FileName is the optional per-root ignore file.
const FileName = ".luabundleignore"

// Matcher holds the exclusion regex and compiled patterns.
type Matcher struct {
	regex *regexp.Regexp
	rules []rule
}

type rule struct {
	segments []string
	negation bool
	dirOnly  bool
	anchored bool
}

// New creates a Matcher from an exclusion regex and gitignore-style
// patterns. An empty regex disables regex exclusion.
func New(pattern string, patterns ...string) (*Matcher, error) {
	m := &Matcher{}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		m.regex = re
	}
	for _, p := range patterns {
		m.AddPattern(p)
	}
	return m, nil
}

// AddPattern adds one gitignore-style pattern. Blank lines and comments are
// ignored.
func (m *Matcher) AddPattern(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	var r rule
	if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		r.anchored = true
	}
	if pattern == "" {
		return
	}

	r.segments = strings.Split(pattern, "/")
	m.rules = append(m.rules, r)
}

// AddFromFile reads patterns from an ignore file, one per line.
func (m *Matcher) AddFromFile(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.AddPattern(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ignore file %s: %w", file, err)
	}
	return nil
}

// Match reports whether rel should be ignored. A path is also ignored when
// any of its parent directories is.
func (m *Matcher) Match(rel string, isDir bool) bool {
	rel = path.Clean(strings.ReplaceAll(rel, `\`, "/"))
	if rel == "." || rel == "" {
		return false
	}

	if m.regex != nil && m.regex.MatchString(rel) {
		return true
	}

	segments := strings.Split(rel, "/")
	for i := 1; i < len(segments); i++ {
		if m.matchRules(segments[:i], true) {
			return true
		}
	}
	return m.matchRules(segments, isDir)
}

// matchRules applies the rules in order; the last matching rule wins.
func (m *Matcher) matchRules(segments []string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.matches(segments) {
			ignored = !r.negation
		}
	}
	return ignored
}

func (r rule) matches(segments []string) bool {
	if r.anchored {
		return matchSegments(r.segments, segments)
	}
	for i := range segments {
		if matchSegments(r.segments, segments[i:]) {
			return true
		}
	}
	return false
}

// matchSegments matches a pattern against a path, both split on "/".
// "**" matches zero or more segments.
func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}

	if pattern[0] == "**" {
		for i := 0; i <= len(segments); i++ {
			if matchSegments(pattern[1:], segments[i:]) {
				return true
			}
		}
		return false
	}

	if len(segments) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segments[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}
