package bundle

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"

	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
)

// DefaultLockTimeout bounds how long a write waits for another process.
const DefaultLockTimeout = 10 * time.Second

// Writer replaces the output file atomically.
//
// Empty content is never written, so a transient empty module set cannot
// destroy the last good bundle. Content identical to the previous write is
// skipped.
type Writer struct {
	path        string
	lock        *FileLock
	lockTimeout time.Duration
	lastSum     [sha256.Size]byte
	hasLast     bool
}

// NewWriter creates a writer for the output path.
func NewWriter(path string) *Writer {
	return &Writer{
		path:        path,
		lock:        NewFileLock(path),
		lockTimeout: DefaultLockTimeout,
	}
}

// SetLockTimeout changes how long Write waits for the output lock.
// A non-positive timeout restores DefaultLockTimeout.
func (w *Writer) SetLockTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultLockTimeout
	}
	w.lockTimeout = d
}

// Path returns the output path.
func (w *Writer) Path() string {
	return w.path
}

// Write stores text at the output path. It returns false when the write was
// skipped because text is empty or unchanged.
func (w *Writer) Write(ctx context.Context, text string) (bool, error) {
	if text == "" {
		return false, nil
	}

	sum := sha256.Sum256([]byte(text))
	if w.hasLast && sum == w.lastSum {
		if _, err := os.Stat(w.path); err == nil {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return false, lberrors.WriteError(w.path, err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()
	if err := w.lock.Lock(lockCtx); err != nil {
		return false, lberrors.New(lberrors.ErrCodeLockFailed, err.Error(), err).
			WithDetail("path", w.lock.Path())
	}
	defer func() { _ = w.lock.Unlock() }()

	if err := renameio.WriteFile(w.path, []byte(text), 0o644); err != nil {
		return false, lberrors.WriteError(w.path, err)
	}

	w.lastSum = sum
	w.hasLast = true
	return true, nil
}
