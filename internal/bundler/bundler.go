// Package bundler connects the watcher to the bundle output.
//
// A Bundler runs a single event loop. It applies every watcher event to the
// module store in delivery order, opens the rebuild gate when the initial
// scan completes, and rebuilds the output whenever the scheduler's quiet
// period expires. Store mutation and rebuilds never run concurrently.
package bundler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Aman-CERP/luabundle/internal/bundle"
	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
	"github.com/Aman-CERP/luabundle/internal/modpath"
	"github.com/Aman-CERP/luabundle/internal/scheduler"
	"github.com/Aman-CERP/luabundle/internal/store"
	"github.com/Aman-CERP/luabundle/internal/watcher"
)

// Reporter receives the console messages of the event loop.
type Reporter interface {
	Added(path string)
	Changed(path string)
	Removed(path string)
	Ready()
	Built(path string, modules, size int, elapsed time.Duration, written bool)
	Errorf(format string, args ...any)
}

// Options configures a Bundler.
type Options struct {
	// Root is the watch root exactly as passed to the watcher.
	Root string
	// Namespace replaces Root in module paths. Default: modpath.DefaultNamespace
	Namespace string
	// Debounce is the rebuild quiet period. Default: scheduler.DefaultWindow
	Debounce time.Duration
	// Compile stops the loop after the first rebuild.
	Compile bool
}

// Bundler owns the module store and drives rebuilds.
type Bundler struct {
	opts      Options
	store     *store.Store
	scheduler *scheduler.Scheduler
	builder   *bundle.Builder
	reporter  Reporter
	errs      chan error
}

// New creates a Bundler writing through builder.
func New(opts Options, builder *bundle.Builder, reporter Reporter) *Bundler {
	if opts.Namespace == "" {
		opts.Namespace = modpath.DefaultNamespace
	}
	return &Bundler{
		opts:      opts,
		store:     store.New(),
		scheduler: scheduler.New(opts.Debounce),
		builder:   builder,
		reporter:  reporter,
		errs:      make(chan error, 16),
	}
}

// Errors returns read and rebuild failures. Failures are dropped when the
// buffer is full; the channel is never closed.
func (b *Bundler) Errors() <-chan error {
	return b.errs
}

// Snapshot returns the current store contents.
func (b *Bundler) Snapshot() []store.Entry {
	return b.store.Snapshot()
}

// Run processes events until ctx is cancelled or the watcher closes its
// event stream. In compile mode it returns the result of the first rebuild.
func (b *Bundler) Run(ctx context.Context, events <-chan watcher.FileEvent, watchErrs <-chan error) error {
	defer b.scheduler.Stop()

	ready := false
	for {
		select {
		case <-ctx.Done():
			if b.opts.Compile && !ready {
				return ctx.Err()
			}
			return nil

		case event, ok := <-events:
			if !ok {
				if b.opts.Compile && !ready {
					return lberrors.New(lberrors.ErrCodeWatchFailed,
						"watcher stopped before the initial scan completed", nil)
				}
				return nil
			}

			if event.Operation == watcher.OpReady {
				ready = true
				err := b.openGate(ctx)
				if b.opts.Compile {
					return err
				}
				continue
			}

			if err := b.HandleEvent(ctx, event); err != nil {
				b.report(ctx, "event failed", err)
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			b.reporter.Errorf("Watcher error: %v", err)
			slog.LogAttrs(ctx, slog.LevelWarn, "watcher error", lberrors.FormatForLog(err)...)

		case gen := <-b.scheduler.C():
			if b.scheduler.Consume(gen) {
				_ = b.Rebuild(ctx)
			}
		}
	}
}

// openGate enables debounced rebuilds and runs the first one immediately.
func (b *Bundler) openGate(ctx context.Context) error {
	b.reporter.Ready()
	if !b.scheduler.Open() {
		return nil
	}
	slog.DebugContext(ctx, "initial scan complete",
		slog.Int("modules", b.store.Len()))
	return b.Rebuild(ctx)
}

// HandleEvent applies one watcher event to the store and signals the
// scheduler. A read failure aborts the event without signalling.
func (b *Bundler) HandleEvent(ctx context.Context, event watcher.FileEvent) error {
	path := modpath.Canonicalize(event.Path, b.opts.Root, b.opts.Namespace)

	switch event.Operation {
	case watcher.OpAdd, watcher.OpChange:
		content, err := os.ReadFile(event.Path)
		if err != nil {
			return lberrors.ReadError(event.Path, err)
		}
		b.store.Put(path, content)
		if event.Operation == watcher.OpAdd {
			b.reporter.Added(event.Path)
		} else {
			b.reporter.Changed(event.Path)
		}

	case watcher.OpRemove:
		b.store.Remove(path)
		b.reporter.Removed(event.Path)

	default:
		return nil
	}

	slog.DebugContext(ctx, "module updated",
		slog.String("op", event.Operation.String()),
		slog.String("module", path.String()))

	b.scheduler.Trigger()
	return nil
}

// Rebuild serializes the current store and writes the output. Failures are
// reported and returned; nothing is retried.
func (b *Bundler) Rebuild(ctx context.Context) error {
	res, err := b.builder.Build(ctx, b.store.Snapshot())
	if err != nil {
		b.report(ctx, "rebuild failed", err)
		return err
	}

	if res.Modules == 0 {
		slog.InfoContext(ctx, "no modules tracked, output left untouched",
			slog.String("output", b.builder.Output()))
		return nil
	}

	b.reporter.Built(b.builder.Output(), res.Modules, res.Bytes, res.Duration, res.Written)
	slog.DebugContext(ctx, "rebuild complete",
		slog.Int("modules", res.Modules),
		slog.Int("bytes", res.Bytes),
		slog.Bool("written", res.Written),
		slog.Duration("duration", res.Duration))
	return nil
}

// report logs err, prints it and forwards it on the error channel, dropping
// it if nobody is listening.
func (b *Bundler) report(ctx context.Context, msg string, err error) {
	slog.LogAttrs(ctx, slog.LevelError, msg, lberrors.FormatForLog(err)...)
	b.reporter.Errorf("%s", err)

	select {
	case b.errs <- err:
	default:
	}
}
