// Package bundle turns a module snapshot into a single Lua source file.
//
// The output starts with a small lazy loader. Every module is registered as
// a pending factory under its canonical path and only evaluated the first
// time it is required, so modules may reference each other in any order.
// The last statement resolves the entry point and returns its value.
package bundle

import (
	"fmt"
	"strings"

	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
	"github.com/Aman-CERP/luabundle/internal/modpath"
	"github.com/Aman-CERP/luabundle/internal/store"
)

// DefaultEntryPoint is the module whose value the bundle returns.
const DefaultEntryPoint modpath.Path = "@src/init.lua"

// Header is the loader runtime emitted before any module.
//
// wrapRequire returns the cached value for a path, evaluates and caches its
// pending factory on first access, and falls back to the host require for
// paths that are not part of the bundle.
const Header = `
local modules = {}
local pendingModules = {}
local function wrapRequire(path)
	if modules[path] == nil then
		if pendingModules[path] == nil then
			modules[path] = require(path)
		else
			modules[path] = pendingModules[path](wrapRequire)
			pendingModules[path] = nil
		end
	end
	return modules[path]
end`

// Footer is appended after the entry point resolution.
const Footer = ""

// Serialize renders snapshot as a bundle returning entry.
//
// It fails with an InvalidEntryError if any entry is not text and with a
// MissingEntryPointError if entry is not in snapshot. Output is a pure
// function of its inputs.
func Serialize(snapshot []store.Entry, entry modpath.Path) (string, error) {
	found := false
	for _, e := range snapshot {
		if !e.IsText() {
			return "", lberrors.InvalidEntryError(e.Path.String(), e.Kind.String())
		}
		if e.Path == entry {
			found = true
		}
	}
	if !found {
		return "", lberrors.MissingEntryPointError(entry.String())
	}

	var sb strings.Builder
	sb.WriteString(Header)

	for _, e := range snapshot {
		fmt.Fprintf(&sb, "\npendingModules[%s] = function(require)\n%s\nend",
			quote(e.Path.String()), Indent(e.Content))
	}

	fmt.Fprintf(&sb, "\nreturn wrapRequire(%s)", quote(entry.String()))
	sb.WriteString(Footer)

	return sb.String(), nil
}

// Indent prefixes every non-blank line of content with one tab.
// Blank lines stay empty so indentation never adds whitespace-only lines.
func Indent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == "" {
			continue
		}
		lines[i] = "\t" + line
	}
	return strings.Join(lines, "\n")
}

// quote returns s as a double-quoted Lua string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&sb, `\%03d`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
