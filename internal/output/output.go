// Package output prints the bundler's console messages.
package output

import (
	"fmt"
	"io"
	"time"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a plain Writer.
func New(out io.Writer) *Writer {
	return &Writer{
		out:    out,
		styles: NoColorStyles(),
	}
}

// NewColor creates a Writer that styles its output when useColor is set.
func NewColor(out io.Writer, useColor bool) *Writer {
	w := New(out)
	if useColor {
		w.styles = DefaultStyles()
	}
	return w
}

// Added reports a tracked file that appeared.
func (w *Writer) Added(path string) {
	w.event(path, w.styles.Added.Render("added"))
}

// Changed reports a tracked file whose content changed.
func (w *Writer) Changed(path string) {
	w.event(path, w.styles.Changed.Render("changed"))
}

// Removed reports a tracked file that disappeared.
func (w *Writer) Removed(path string) {
	w.event(path, w.styles.Removed.Render("removed"))
}

// Errors from writing are intentionally ignored for console output.
func (w *Writer) event(path, verb string) {
	_, _ = fmt.Fprintf(w.out, "%s has been %s\n", w.styles.Path.Render(path), verb)
}

// Ready reports the end of the initial scan.
func (w *Writer) Ready() {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render("Initial scan complete. Ready for changes"))
}

// Built reports a finished rebuild.
func (w *Writer) Built(path string, modules, size int, elapsed time.Duration, written bool) {
	if !written {
		_, _ = fmt.Fprintf(w.out, "%s %s\n",
			w.styles.Dim.Render(path),
			w.styles.Dim.Render("is up to date"))
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s %s\n",
		w.styles.Success.Render("Bundled"),
		w.styles.Path.Render(path),
		w.styles.Dim.Render(fmt.Sprintf("(%d modules, %d bytes, %s)", modules, size, elapsed.Round(time.Millisecond))))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}
