// Package logging configures the process-wide slog logger.
//
// Diagnostics go to stderr: human-readable text on a terminal, JSON
// otherwise. With a log file configured, JSON records are also appended to a
// size-rotated file. Console messages meant for the user are printed by
// package output, not logged.
package logging
