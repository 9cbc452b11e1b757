// Package errors provides structured error handling for luabundle.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (reading modules, writing the bundle)
//   - 3XX: Watch errors
//   - 4XX: Bundle validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file read and write errors.
	CategoryIO Category = "IO"
	// CategoryWatch indicates errors reported by the file watcher.
	CategoryWatch Category = "WATCH"
	// CategoryBundle indicates a module set that cannot be bundled.
	CategoryBundle Category = "BUNDLE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the process must not continue.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the current operation failed but the process continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeMissingArgument = "ERR_101_MISSING_ARGUMENT"
	ErrCodeConfigInvalid   = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeReadFailed  = "ERR_201_READ_FAILED"
	ErrCodeWriteFailed = "ERR_202_WRITE_FAILED"
	ErrCodeLockFailed  = "ERR_203_LOCK_FAILED"

	// Watch errors (300-399)
	ErrCodeWatchFailed = "ERR_301_WATCH_FAILED"

	// Bundle errors (400-499)
	ErrCodeInvalidEntry      = "ERR_401_INVALID_ENTRY"
	ErrCodeMissingEntryPoint = "ERR_402_MISSING_ENTRY_POINT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_MISSING_ARGUMENT"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryWatch
	case '4':
		return CategoryBundle
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMissingArgument, ErrCodeConfigInvalid:
		return SeverityFatal
	case ErrCodeWatchFailed:
		return SeverityWarning
	default:
		return SeverityError
	}
}
