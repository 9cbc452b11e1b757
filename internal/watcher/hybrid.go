package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
	"github.com/Aman-CERP/luabundle/internal/ignore"
)

// HybridWatcher implements the Watcher interface using fsnotify as the primary
// watching mechanism with polling as a fallback.
//
// All tracking state is owned by the goroutine running Start.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	poller      *poller
	useFsnotify bool
	coalescer   *Coalescer
	walker      *walker
	events      chan FileEvent
	errors      chan error
	stopCh      chan struct{}
	rootArg     string
	rootPath    string
	opts        Options
	mu          sync.Mutex
	stopped     bool

	known map[string]bool
	dirs  map[string]string
}

// Ensure HybridWatcher implements Watcher interface.
var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	h := &HybridWatcher{
		events: make(chan FileEvent, opts.EventBufferSize),
		errors: make(chan error, 10),
		stopCh: make(chan struct{}),
		opts:   opts,
		known:  make(map[string]bool),
		dirs:   make(map[string]string),
	}

	if opts.AtomicWindow > 0 {
		h.coalescer = NewCoalescer(opts.AtomicWindow)
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
			h.useFsnotify = true
		} else {
			slog.Warn("fsnotify unavailable, falling back to polling",
				slog.String("error", err.Error()))
		}
	}

	return h, nil
}

// Start scans root, emits OpReady, then watches for changes. It blocks until
// Stop is called or ctx is cancelled and closes Events and Errors on return.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	defer close(h.events)
	defer close(h.errors)
	defer func() { _ = h.Stop() }()

	absPath, err := filepath.Abs(root)
	if err != nil {
		return lberrors.WatchError(fmt.Errorf("resolve absolute path: %w", err))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return lberrors.WatchError(err)
	}
	if !info.IsDir() {
		return lberrors.WatchError(fmt.Errorf("%s is not a directory", root))
	}

	matcher, err := h.loadMatcher(absPath)
	if err != nil {
		return lberrors.WatchError(err)
	}

	h.mu.Lock()
	h.rootArg = root
	h.rootPath = absPath
	h.mu.Unlock()

	h.walker = &walker{
		root:           absPath,
		matcher:        matcher,
		maxDepth:       h.opts.MaxDepth,
		followSymlinks: h.opts.FollowSymlinks,
	}
	if !h.useFsnotify {
		h.poller = newPoller(h.walker)
	}

	if !h.initialScan(ctx) {
		return ctx.Err()
	}
	if !h.send(ctx, FileEvent{Operation: OpReady, Timestamp: time.Now()}) {
		return ctx.Err()
	}

	slog.Debug("watcher ready",
		slog.String("root", absPath),
		slog.String("type", h.WatcherType()),
		slog.Int("files", len(h.known)))

	return h.loop(ctx)
}

// loadMatcher builds the ignore matcher for root, including the optional
// ignore file.
func (h *HybridWatcher) loadMatcher(root string) (*ignore.Matcher, error) {
	matcher, err := ignore.New(h.opts.IgnorePattern, h.opts.IgnorePatterns...)
	if err != nil {
		return nil, err
	}
	matcher.AddPattern("/" + ignore.FileName)

	file := filepath.Join(root, ignore.FileName)
	if err := matcher.AddFromFile(file); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load ignore file",
			slog.String("path", file),
			slog.String("error", err.Error()))
	}
	return matcher, nil
}

// initialScan emits OpAdd for every tracked file.
func (h *HybridWatcher) initialScan(ctx context.Context) bool {
	ok := true
	h.walker.walk("", visitor{
		dir: h.watchDir,
		file: func(rel string, info fs.FileInfo) {
			if !ok {
				return
			}
			if h.poller != nil {
				h.poller.record(rel, info)
			}
			h.known[rel] = true
			ok = h.send(ctx, h.newEvent(rel, OpAdd))
		},
		err: h.emitWalkError,
	})
	return ok
}

func (h *HybridWatcher) loop(ctx context.Context) error {
	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	if h.useFsnotify {
		fsEvents = h.fsWatcher.Events
		fsErrors = h.fsWatcher.Errors
	}

	var tick <-chan time.Time
	if h.poller != nil {
		ticker := time.NewTicker(h.opts.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var batches <-chan []FileEvent
	if h.coalescer != nil {
		batches = h.coalescer.Output()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-fsEvents:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(ctx, event)
		case err, ok := <-fsErrors:
			if !ok {
				return nil
			}
			h.emitError(lberrors.WatchError(err))
		case <-tick:
			for _, c := range h.poller.detectChanges(h.emitWalkError) {
				h.publish(ctx, c.rel, c.op)
			}
		case batch := <-batches:
			for _, event := range batch {
				if !h.send(ctx, event) {
					return ctx.Err()
				}
			}
		}
	}
}

// handleFsnotifyEvent converts and filters fsnotify events.
func (h *HybridWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	rel, ok := h.relPath(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		h.handleCreate(ctx, rel, event.Name)
	case event.Op&fsnotify.Write != 0:
		h.handleWrite(ctx, rel, event.Name)
	case event.Op&fsnotify.Remove != 0:
		h.untrack(ctx, rel)
	case event.Op&fsnotify.Rename != 0:
		h.untrack(ctx, rel)
	default:
		// Chmod
	}
}

func (h *HybridWatcher) handleCreate(ctx context.Context, rel, abs string) {
	info, ok := h.statTracked(abs)
	if !ok || h.walker.matcher.Match(rel, info.IsDir()) {
		return
	}

	if info.IsDir() {
		if !h.walker.allowsDir(rel) {
			return
		}
		h.walker.walk(rel, visitor{
			dir: h.watchDir,
			file: func(child string, _ fs.FileInfo) {
				h.track(ctx, child)
			},
			err: h.emitWalkError,
		})
		return
	}

	if info.Mode().IsRegular() && h.walker.allowsFile(rel) {
		h.track(ctx, rel)
	}
}

func (h *HybridWatcher) handleWrite(ctx context.Context, rel, abs string) {
	if h.known[rel] {
		h.publish(ctx, rel, OpChange)
		return
	}
	h.handleCreate(ctx, rel, abs)
}

// statTracked stats abs, honouring the symlink policy.
func (h *HybridWatcher) statTracked(abs string) (fs.FileInfo, bool) {
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, false
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		if !h.opts.FollowSymlinks {
			return nil, false
		}
		if info, err = os.Stat(abs); err != nil {
			return nil, false
		}
	}
	return info, true
}

// track reports rel as added, or as changed if it is already known.
func (h *HybridWatcher) track(ctx context.Context, rel string) {
	op := OpAdd
	if h.known[rel] {
		op = OpChange
	}
	h.publish(ctx, rel, op)
}

// untrack removes rel and, if it was a directory, everything below it.
func (h *HybridWatcher) untrack(ctx context.Context, rel string) {
	prefix := rel + "/"

	var removed []string
	for known := range h.known {
		if known == rel || strings.HasPrefix(known, prefix) {
			removed = append(removed, known)
		}
	}
	sort.Strings(removed)
	for _, r := range removed {
		h.publish(ctx, r, OpRemove)
	}

	for dir, abs := range h.dirs {
		if dir == rel || strings.HasPrefix(dir, prefix) {
			// Renamed directories keep their inotify watch.
			_ = h.fsWatcher.Remove(abs)
			delete(h.dirs, dir)
		}
	}
}

// publish records the operation and forwards it, through the coalescer when
// one is configured.
func (h *HybridWatcher) publish(ctx context.Context, rel string, op Operation) {
	if op == OpRemove {
		delete(h.known, rel)
	} else {
		h.known[rel] = true
	}

	event := h.newEvent(rel, op)
	if h.coalescer != nil {
		h.coalescer.Add(event)
		return
	}
	h.send(ctx, event)
}

func (h *HybridWatcher) watchDir(rel, abs string) {
	if !h.useFsnotify {
		return
	}
	if _, ok := h.dirs[rel]; ok {
		return
	}
	if err := h.fsWatcher.Add(abs); err != nil {
		h.emitError(lberrors.WatchError(fmt.Errorf("watch %s: %w", abs, err)))
		return
	}
	h.dirs[rel] = abs
}

func (h *HybridWatcher) newEvent(rel string, op Operation) FileEvent {
	return FileEvent{
		Path:      filepath.Join(h.rootArg, filepath.FromSlash(rel)),
		RelPath:   rel,
		Operation: op,
		Timestamp: time.Now(),
	}
}

// relPath returns the slash-separated path of abs relative to the root.
func (h *HybridWatcher) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(h.rootPath, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// send delivers an event in order. It blocks until the consumer accepts it
// and returns false if the watcher is shutting down.
func (h *HybridWatcher) send(ctx context.Context, event FileEvent) bool {
	select {
	case h.events <- event:
		return true
	case <-ctx.Done():
		return false
	case <-h.stopCh:
		return false
	}
}

func (h *HybridWatcher) emitWalkError(err error) {
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	h.emitError(lberrors.WatchError(err))
}

// emitError sends an error to the error channel, dropping it if the buffer
// is full.
func (h *HybridWatcher) emitError(err error) {
	select {
	case h.errors <- err:
	default:
		slog.Warn("watcher error buffer full, dropping error",
			slog.String("error", err.Error()))
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true
	close(h.stopCh)

	if h.coalescer != nil {
		h.coalescer.Stop()
	}
	if h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	return nil
}

// Events returns the ordered event stream.
func (h *HybridWatcher) Events() <-chan FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns the type of watcher being used ("fsnotify" or "polling").
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}
