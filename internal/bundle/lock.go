package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a contended lock is retried.
const lockRetryDelay = 50 * time.Millisecond

// FileLock guards the output file against concurrent luabundle processes
// writing the same bundle. The lock file lives next to the output as
// <output>.lock.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock for the given output path.
func NewFileLock(output string) *FileLock {
	lockPath := output + ".lock"
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires the lock, retrying until ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("failed to acquire lock: %s is held by another process", l.path)
	}

	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}

	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}
