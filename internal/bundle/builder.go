package bundle

import (
	"context"
	"time"

	"github.com/Aman-CERP/luabundle/internal/modpath"
	"github.com/Aman-CERP/luabundle/internal/store"
)

// Result describes one build pass.
type Result struct {
	Modules  int
	Bytes    int
	Written  bool
	Duration time.Duration
}

// Builder serializes snapshots and writes them to the output file.
type Builder struct {
	entry  modpath.Path
	writer *Writer
}

// NewBuilder creates a builder for entry writing through w.
func NewBuilder(entry modpath.Path, w *Writer) *Builder {
	if entry == "" {
		entry = DefaultEntryPoint
	}
	return &Builder{entry: entry, writer: w}
}

// Output returns the output path.
func (b *Builder) Output() string {
	return b.writer.Path()
}

// Build serializes snapshot and writes the result. An empty snapshot is
// skipped without touching the output. On error nothing is written.
func (b *Builder) Build(ctx context.Context, snapshot []store.Entry) (Result, error) {
	start := time.Now()
	res := Result{Modules: len(snapshot)}

	if len(snapshot) == 0 {
		res.Duration = time.Since(start)
		return res, nil
	}

	text, err := Serialize(snapshot, b.entry)
	if err != nil {
		return res, err
	}
	res.Bytes = len(text)

	written, err := b.writer.Write(ctx, text)
	if err != nil {
		return res, err
	}
	res.Written = written
	res.Duration = time.Since(start)
	return res, nil
}
