package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the log file size that triggers rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the number of rotated backups kept next to the log file
	// (default: 5).
	MaxFiles int
	// Stderr receives diagnostics. Default: os.Stderr
	Stderr io.Writer
}

// DefaultConfig returns stderr-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		MaxSizeMB: 10,
		MaxFiles:  5,
		Stderr:    os.Stderr,
	}
}

// Setup builds a logger from cfg and returns it with a cleanup function
// that closes the log file, if any.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if cfg.FilePath == "" {
		var handler slog.Handler
		if isTerminal(stderr) {
			handler = slog.NewTextHandler(stderr, opts)
		} else {
			handler = slog.NewJSONHandler(stderr, opts)
		}
		return slog.New(handler), func() {}, nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultConfig().MaxSizeMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultConfig().MaxFiles
	}

	file, err := openRotatingFile(cfg.FilePath, int64(cfg.MaxSizeMB)<<20, cfg.MaxFiles, stderr)
	if err != nil {
		return nil, nil, err
	}

	handler := slog.NewJSONHandler(io.MultiWriter(file, stderr), opts)

	cleanup := func() {
		_ = file.Close()
	}

	return slog.New(handler), cleanup, nil
}

// SetupDefault sets up logging and installs the logger as the slog default.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
