package errors

import (
	stderrors "errors"
	"fmt"
)

// BundleError is the structured error type for luabundle.
// It carries enough context to log a failure and to show it to the user.
type BundleError struct {
	// Code is the unique error code (e.g., "ERR_201_READ_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Watch, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *BundleError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BundleError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works against the sentinels below.
func (e *BundleError) Is(target error) bool {
	if t, ok := target.(*BundleError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *BundleError) WithDetail(key, value string) *BundleError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *BundleError) WithSuggestion(suggestion string) *BundleError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BundleError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *BundleError {
	return &BundleError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a BundleError from an existing error.
func Wrap(code string, err error) *BundleError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks.
var (
	ErrMissingArgument   = &BundleError{Code: ErrCodeMissingArgument}
	ErrConfigInvalid     = &BundleError{Code: ErrCodeConfigInvalid}
	ErrReadFailed        = &BundleError{Code: ErrCodeReadFailed}
	ErrWriteFailed       = &BundleError{Code: ErrCodeWriteFailed}
	ErrLockFailed        = &BundleError{Code: ErrCodeLockFailed}
	ErrWatchFailed       = &BundleError{Code: ErrCodeWatchFailed}
	ErrInvalidEntry      = &BundleError{Code: ErrCodeInvalidEntry}
	ErrMissingEntryPoint = &BundleError{Code: ErrCodeMissingEntryPoint}
)

// ConfigurationError reports a missing or invalid startup setting.
func ConfigurationError(message string) *BundleError {
	return New(ErrCodeMissingArgument, message, nil).
		WithSuggestion("usage: luabundle <rootPath> <outputPath> [--compile]")
}

// ReadError reports a tracked file that could not be read.
func ReadError(path string, cause error) *BundleError {
	return New(ErrCodeReadFailed, fmt.Sprintf("read %s: %v", path, cause), cause).
		WithDetail("path", path)
}

// WriteError reports a bundle that could not be written.
func WriteError(path string, cause error) *BundleError {
	return New(ErrCodeWriteFailed, fmt.Sprintf("write %s: %v", path, cause), cause).
		WithDetail("path", path)
}

// WatchError reports a non-fatal watcher failure.
func WatchError(cause error) *BundleError {
	return New(ErrCodeWatchFailed, fmt.Sprintf("watcher error: %v", cause), cause)
}

// InvalidEntryError reports a module whose content is not text.
func InvalidEntryError(path, kind string) *BundleError {
	return New(ErrCodeInvalidEntry, fmt.Sprintf("%s is not defined (content is %s)", path, kind), nil).
		WithDetail("path", path).
		WithDetail("kind", kind)
}

// MissingEntryPointError reports an entry point that is not in the module set.
func MissingEntryPointError(entry string) *BundleError {
	return New(ErrCodeMissingEntryPoint, fmt.Sprintf("entry point %s is not registered", entry), nil).
		WithDetail("entry", entry).
		WithSuggestion("create the entry module or pass --entry")
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var be *BundleError
	if stderrors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a BundleError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var be *BundleError
	if stderrors.As(err, &be) {
		return be.Code
	}
	return ""
}
