package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// rotatingFile is the --log-file sink. Records are appended and synced one
// at a time; when the next record would push the file past maxBytes, the
// file becomes <path>.1 and older backups shift up to <path>.<keep>.
// A record is never split across two files.
type rotatingFile struct {
	path     string
	maxBytes int64
	keep     int
	errOut   io.Writer

	mu   sync.Mutex
	file *os.File
	size int64
}

func openRotatingFile(path string, maxBytes int64, keep int, errOut io.Writer) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &rotatingFile{
		path:     path,
		maxBytes: maxBytes,
		keep:     keep,
		errOut:   errOut,
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

// Write appends one record. Each write is synced so `tail -f` follows a
// running watch session.
func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	if r.size > 0 && r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "log rotation failed: %v\n", err)
			if r.file == nil {
				return 0, err
			}
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		return n, err
	}
	_ = r.file.Sync()
	return n, nil
}

// Close flushes and closes the file. Further writes fail with os.ErrClosed.
func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	_ = r.file.Sync()
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *rotatingFile) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	r.file = f
	r.size = info.Size()
	return nil
}

// rotate reopens a fresh file even when shifting fails, so logging goes on
// into the old file rather than stopping.
func (r *rotatingFile) rotate() error {
	closeErr := r.file.Close()
	r.file = nil

	shiftErr := r.shift()
	if err := r.open(); err != nil {
		return err
	}
	return errors.Join(closeErr, shiftErr)
}

func (r *rotatingFile) shift() error {
	if r.keep <= 0 {
		return os.Remove(r.path)
	}

	if err := os.Remove(r.backup(r.keep)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for i := r.keep - 1; i >= 1; i-- {
		if err := os.Rename(r.backup(i), r.backup(i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return os.Rename(r.path, r.backup(1))
}

func (r *rotatingFile) backup(n int) string {
	return fmt.Sprintf("%s.%d", r.path, n)
}
