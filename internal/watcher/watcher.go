package watcher

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Aman-CERP/luabundle/internal/ignore"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpAdd indicates a file started being tracked.
	OpAdd Operation = iota
	// OpChange indicates a tracked file was modified or replaced.
	OpChange
	// OpRemove indicates a tracked file is gone.
	OpRemove
	// OpReady marks the end of the initial scan. It carries no path.
	OpReady
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpRemove:
		return "remove"
	case OpReady:
		return "ready"
	default:
		return "unknown"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the file path as seen from the working directory: the root
	// argument passed to Start joined with RelPath.
	Path string

	// RelPath is the slash-separated path relative to the watch root.
	RelPath string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Watcher defines the interface for file system watching.
type Watcher interface {
	// Start scans and then watches root until Stop is called or ctx is
	// cancelled. Blocks for the lifetime of the watcher.
	Start(ctx context.Context, root string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns the ordered event stream. It is closed when Start returns.
	Events() <-chan FileEvent

	// Errors returns non-fatal watcher errors; the watcher keeps running.
	// It is closed when Start returns.
	Errors() <-chan error
}

// Defaults for Options.
const (
	DefaultMaxDepth        = 5
	DefaultAtomicWindow    = 100 * time.Millisecond
	DefaultPollInterval    = time.Second
	DefaultEventBufferSize = 1000
)

// Options configures the watcher behavior.
type Options struct {
	// IgnorePattern is a regex matched against the slash-separated path
	// relative to the root. Default: ignore.DefaultPattern.
	IgnorePattern string

	// IgnorePatterns are gitignore-style patterns applied in addition to
	// IgnorePattern and any .luabundleignore file in the root.
	IgnorePatterns []string

	// MaxDepth bounds how many directory levels below the root are watched.
	// 0 watches root files only. DefaultOptions sets 5.
	MaxDepth int

	// FollowSymlinks descends into symlinked directories and tracks
	// symlinked files.
	FollowSymlinks bool

	// AtomicWindow is how long live events are held to coalesce editor
	// temp-file swaps. Negative disables coalescing. Default: 100ms
	AtomicWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 1s
	PollInterval time.Duration

	// ForcePolling skips fsnotify entirely.
	ForcePolling bool

	// EventBufferSize is the size of the event channel buffer.
	// Default: 1000
	EventBufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		IgnorePattern:   ignore.DefaultPattern,
		MaxDepth:        DefaultMaxDepth,
		FollowSymlinks:  true,
		AtomicWindow:    DefaultAtomicWindow,
		PollInterval:    DefaultPollInterval,
		EventBufferSize: DefaultEventBufferSize,
	}
}

// Validate validates the options and returns an error if invalid.
func (o Options) Validate() error {
	if o.IgnorePattern != "" {
		if _, err := regexp.Compile(o.IgnorePattern); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", o.IgnorePattern, err)
		}
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("max depth must be non-negative, got %d", o.MaxDepth)
	}
	if o.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative, got %s", o.PollInterval)
	}
	return nil
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.AtomicWindow == 0 {
		o.AtomicWindow = defaults.AtomicWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
